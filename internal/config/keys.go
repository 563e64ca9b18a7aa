package config

import "github.com/roach88/barcodebuddy/internal/store"

// Setting keys. Values are stored as strings; bool keys hold "0" or "1".
const (
	KeyBarcodeConsume        = "BARCODE_C"
	KeyBarcodeConsumeSpoiled = "BARCODE_CS"
	KeyBarcodePurchase       = "BARCODE_P"
	KeyBarcodeOpen           = "BARCODE_O"
	KeyBarcodeGetStock       = "BARCODE_GS"
	KeyBarcodeShoppingList   = "BARCODE_AS"
	KeyBarcodeQuantityPrefix = "BARCODE_Q"

	KeyRevertTime         = "REVERT_TIME"
	KeyRevertSingle       = "REVERT_SINGLE"
	KeyMoreVerbose        = store.VerboseKey
	KeyShoppingListRemove = "SHOPPINGLIST_REMOVE"

	KeyGrocyAPIURL = "GROCY_API_URL"
	KeyGrocyAPIKey = "GROCY_API_KEY"

	KeyLastBarcode = "LAST_BARCODE"
	KeyLastProduct = "LAST_PRODUCT"

	KeyWebsocketUse     = "WS_USE"
	KeyWebsocketPort    = "WS_PORT"
	KeyWebsocketPortExt = "WS_PORT_EXT"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
)

type keySpec struct {
	kind     kind
	fallback string
}

// keys lists every recognized setting with its type and first-boot default.
var keys = map[string]keySpec{
	KeyBarcodeConsume:        {kindString, "BBUDDY-C"},
	KeyBarcodeConsumeSpoiled: {kindString, "BBUDDY-CS"},
	KeyBarcodePurchase:       {kindString, "BBUDDY-P"},
	KeyBarcodeOpen:           {kindString, "BBUDDY-O"},
	KeyBarcodeGetStock:       {kindString, "BBUDDY-I"},
	KeyBarcodeShoppingList:   {kindString, "BBUDDY-AS"},
	KeyBarcodeQuantityPrefix: {kindString, "BBUDDY-Q-"},

	KeyRevertTime:         {kindInt, "10"},
	KeyRevertSingle:       {kindBool, "1"},
	KeyMoreVerbose:        {kindBool, "1"},
	KeyShoppingListRemove: {kindBool, "1"},

	KeyGrocyAPIURL: {kindString, ""},
	KeyGrocyAPIKey: {kindString, ""},

	KeyLastBarcode: {kindString, ""},
	KeyLastProduct: {kindString, ""},

	KeyWebsocketUse:     {kindBool, "0"},
	KeyWebsocketPort:    {kindInt, "47631"},
	KeyWebsocketPortExt: {kindInt, "47631"},
}

// Defaults returns a copy of the first-boot value of every setting.
func Defaults() map[string]string {
	out := make(map[string]string, len(keys))
	for k, spec := range keys {
		out[k] = spec.fallback
	}
	return out
}

// IsKnownKey reports whether key is a recognized setting.
func IsKnownKey(key string) bool {
	_, ok := keys[key]
	return ok
}
