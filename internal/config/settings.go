package config

import (
	"strconv"
	"time"
)

// Settings is a typed snapshot of every setting, taken at one point in time.
type Settings struct {
	BarcodeConsume        string
	BarcodeConsumeSpoiled string
	BarcodePurchase       string
	BarcodeOpen           string
	BarcodeGetStock       string
	BarcodeShoppingList   string
	QuantityPrefix        string

	RevertTimeout      time.Duration
	RevertSingle       bool
	Verbose            bool
	ShoppingListRemove bool

	GrocyAPIURL string
	GrocyAPIKey string

	LastBarcode string
	LastProduct string

	WebsocketEnabled bool
	WebsocketPort    int
	WebsocketPortExt int
}

func fromMap(m map[string]string) (Settings, error) {
	revert, err := intValue(m, KeyRevertTime)
	if err != nil {
		return Settings{}, err
	}
	wsPort, err := intValue(m, KeyWebsocketPort)
	if err != nil {
		return Settings{}, err
	}
	wsPortExt, err := intValue(m, KeyWebsocketPortExt)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		BarcodeConsume:        m[KeyBarcodeConsume],
		BarcodeConsumeSpoiled: m[KeyBarcodeConsumeSpoiled],
		BarcodePurchase:       m[KeyBarcodePurchase],
		BarcodeOpen:           m[KeyBarcodeOpen],
		BarcodeGetStock:       m[KeyBarcodeGetStock],
		BarcodeShoppingList:   m[KeyBarcodeShoppingList],
		QuantityPrefix:        m[KeyBarcodeQuantityPrefix],

		RevertTimeout:      time.Duration(revert) * time.Minute,
		RevertSingle:       m[KeyRevertSingle] == "1",
		Verbose:            m[KeyMoreVerbose] == "1",
		ShoppingListRemove: m[KeyShoppingListRemove] == "1",

		GrocyAPIURL: m[KeyGrocyAPIURL],
		GrocyAPIKey: m[KeyGrocyAPIKey],

		LastBarcode: m[KeyLastBarcode],
		LastProduct: m[KeyLastProduct],

		WebsocketEnabled: m[KeyWebsocketUse] == "1",
		WebsocketPort:    wsPort,
		WebsocketPortExt: wsPortExt,
	}, nil
}

func intValue(m map[string]string, key string) (int, error) {
	n, err := strconv.Atoi(m[key])
	if err != nil {
		return 0, &ValidationError{Key: key, Value: m[key], Reason: "not a number"}
	}
	return n, nil
}
