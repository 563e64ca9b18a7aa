package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/barcodebuddy/internal/catalog"
	"github.com/roach88/barcodebuddy/internal/lookup"
	"github.com/roach88/barcodebuddy/internal/testutil"
)

type cliFixture struct {
	t       *testing.T
	db      string
	opts    *RootOptions
	catalog *testutil.FakeCatalog
	clock   *testutil.FakeClock
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	cat := testutil.NewFakeCatalog()
	cat.AddProduct(testutil.FakeProduct{
		Product: catalog.Product{ID: 1, Name: "Milk", Barcodes: []string{"4001"}},
		Stock:   5,
		Unit:    "Pack",
	})
	cat.AddChore(catalog.Chore{ID: 9, Name: "Descale kettle"})

	clock := testutil.NewFakeClock()
	ids := testutil.NewSequentialIDs("scan")
	return &cliFixture{
		t:       t,
		db:      filepath.Join(t.TempDir(), "bbuddy.db"),
		catalog: cat,
		clock:   clock,
		opts: &RootOptions{
			Catalog: cat,
			Lookup:  lookup.Disabled{},
			Clock:   clock,
			NewID:   ids.Generate,
		},
	}
}

// run executes bbuddy with args against the fixture database and returns
// stdout. Logs go to a separate buffer.
func (f *cliFixture) run(args ...string) (string, error) {
	f.t.Helper()
	return f.runContext(context.Background(), args...)
}

func (f *cliFixture) runContext(ctx context.Context, args ...string) (string, error) {
	f.t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCommand(f.opts)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", f.db}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// decode unmarshals a JSON CLIResponse, decoding Data into data.
func decode(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Data: data, Error: raw.Error}
}

func TestScanCommand_ConsumesProduct(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("scan", "4001")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Product found. Consuming 1 Pack of Milk")

	p, _ := f.catalog.Product(1)
	assert.Equal(t, int64(4), p.Stock)
}

func TestScanCommand_ModeThenProductJSON(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("--format", "json", "scan", "BBUDDY-P", "4001")
	require.NoError(t, err)

	var result ScanResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "scan-1", result.Outcomes[0].ID)
	assert.Equal(t, "purchase", result.Outcomes[0].State)
	assert.Equal(t, "purchase", result.Outcomes[1].Action)
	assert.True(t, result.Outcomes[1].Reverted)

	p, _ := f.catalog.Product(1)
	assert.Equal(t, int64(6), p.Stock)
}

func TestScanCommand_FailureReportsCode(t *testing.T) {
	f := newCLIFixture(t)
	f.catalog.Fail(testutil.OpConsume, catalog.NewError(catalog.ErrCodeRemoteUnavailable, "consume", "connection refused", nil))

	out, err := f.run("--format", "json", "scan", "4001")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ScanResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(catalog.ErrCodeRemoteUnavailable), resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
}

func TestScanCommand_RequiresBarcode(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run("scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestStateCommand_SetAndGet(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("state", "set", "purchase")
	require.NoError(t, err)
	assert.Contains(t, out, "purchase (since 2024-03-01T12:00:00Z)")

	out, err = f.run("--format", "json", "state", "get")
	require.NoError(t, err)
	var result StateResult
	decode(t, out, &result)
	assert.Equal(t, "purchase", result.State)
	assert.True(t, testutil.Epoch.Equal(result.Since))
}

func TestStateCommand_RevertsAfterTimeout(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run("state", "set", "open")
	require.NoError(t, err)
	f.clock.Advance(11 * time.Minute)

	out, err := f.run("state", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "consume (since")
}

func TestStateCommand_InvalidMode(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("state", "set", "borrow")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeInvalidInput)
}

func TestBarcodesCommand_ListAndAssign(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run("scan", "9999", "9999")
	require.NoError(t, err)

	out, err := f.run("--format", "json", "barcodes", "list")
	require.NoError(t, err)
	var list BarcodeList
	decode(t, out, &list)
	assert.Empty(t, list.Known)
	require.Len(t, list.Unknown, 1)
	assert.Equal(t, "9999", list.Unknown[0].Barcode)
	assert.Equal(t, int64(2), list.Unknown[0].Amount)

	out, err = f.run("barcodes", "assign", "9999", "1", "--purchase")
	require.NoError(t, err)
	assert.Contains(t, out, "Assigned 9999 to Milk (1), purchased 2")

	p, _ := f.catalog.Product(1)
	assert.Equal(t, []string{"4001", "9999"}, p.Barcodes)
	assert.Equal(t, int64(7), p.Stock)

	out, err = f.run("--format", "json", "barcodes", "list")
	require.NoError(t, err)
	decode(t, out, &list)
	assert.Empty(t, list.Unknown)

	// The barcode now resolves in Grocy.
	out, err = f.run("scan", "9999")
	require.NoError(t, err)
	assert.Contains(t, out, "Consuming 1 Pack of Milk")
}

func TestBarcodesCommand_AssignUnknownBarcode(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("barcodes", "assign", "0000", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
	assert.Empty(t, f.catalog.Calls())
}

func TestBarcodesCommand_DeleteAndPurge(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run("scan", "9001", "9002")
	require.NoError(t, err)

	out, err := f.run("barcodes", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted barcode 1")

	_, err = f.run("barcodes", "delete", "1")
	require.Error(t, err)

	out, err = f.run("barcodes", "purge", "unknown")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 row(s) from unknown")

	out, err = f.run("barcodes", "purge", "everything")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeInvalidInput)
}

func TestTagsCommand_AddListDelete(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("tags", "add", "Milk", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Added tag Milk for Milk (1)")

	out, err = f.run("--format", "json", "tags", "list")
	require.NoError(t, err)
	var rows []TagRow
	decode(t, out, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Milk", rows[0].Word)
	assert.Equal(t, "Milk", rows[0].Product)

	_, err = f.run("tags", "delete", "1")
	require.NoError(t, err)
	out, err = f.run("--format", "json", "tags", "list")
	require.NoError(t, err)
	decode(t, out, &rows)
	assert.Empty(t, rows)
}

func TestTagsCommand_AddRejectsPhrase(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("tags", "add", "whole milk", "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeInvalidInput)
}

func TestTagsCommand_AddUnknownProduct(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("tags", "add", "Bread", "42")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, string(catalog.ErrCodeNotFound))
}

func TestTagsCommand_Suggest(t *testing.T) {
	f := newCLIFixture(t)
	f.catalog.AddProduct(testutil.FakeProduct{
		Product: catalog.Product{ID: 2, Name: "Organic Oat Drink"},
		Unit:    "Bottle",
	})

	_, err := f.run("tags", "add", "Organic", "2")
	require.NoError(t, err)

	out, err := f.run("--format", "json", "tags", "suggest", "2")
	require.NoError(t, err)
	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	decode(t, out, &result)
	assert.Equal(t, []string{"Oat", "Drink"}, result.Suggestions)
}

func TestChoresCommand_LinkScanUnlink(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("chores", "link", "9", "CHORE-9")
	require.NoError(t, err)
	assert.Contains(t, out, "Linked CHORE-9 to chore Descale kettle")

	out, err = f.run("--format", "json", "chores", "list")
	require.NoError(t, err)
	var rows []ChoreRow
	decode(t, out, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, ChoreRow{ID: 9, Name: "Descale kettle", Barcode: "CHORE-9"}, rows[0])

	out, err = f.run("scan", "CHORE-9")
	require.NoError(t, err)
	assert.Contains(t, out, "Executed chore 9")

	_, err = f.run("chores", "unlink", "9")
	require.NoError(t, err)

	out, err = f.run("chores", "unlink", "9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestChoresCommand_LinkUnknownChore(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("chores", "link", "77", "CHORE-77")
	require.Error(t, err)
	assert.Contains(t, out, string(catalog.ErrCodeNotFound))
}

func TestQuantityCommand_SetScanDelete(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("quantity", "set", "PAIR", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "PAIR now sets quantity 2")

	_, err = f.run("scan", "PAIR", "4001")
	require.NoError(t, err)
	p, _ := f.catalog.Product(1)
	assert.Equal(t, int64(3), p.Stock)

	out, err = f.run("--format", "json", "quantity", "list")
	require.NoError(t, err)
	var rows []QuantityRow
	decode(t, out, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "PAIR", rows[0].Barcode)
	assert.Equal(t, int64(2), rows[0].Multiplier)
	assert.Equal(t, "Milk", rows[0].Product)

	_, err = f.run("quantity", "delete", "1")
	require.NoError(t, err)

	out, err = f.run("quantity", "set", "PAIR", "zero")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeInvalidInput)
}

func TestConfigCommand_GetSetList(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("config", "get", "REVERT_TIME")
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)

	out, err = f.run("config", "set", "REVERT_SINGLE", "false")
	require.NoError(t, err)
	assert.Contains(t, out, "REVERT_SINGLE = 0")

	_, err = f.run("config", "set", "GROCY_API_KEY", "s3cret")
	require.NoError(t, err)

	out, err = f.run("config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "REVERT_SINGLE")
	assert.NotContains(t, out, "s3cret")

	out, err = f.run("--format", "json", "config", "list")
	require.NoError(t, err)
	var rows []SettingRow
	decode(t, out, &rows)
	assert.Contains(t, rows, SettingRow{Key: "GROCY_API_KEY", Value: "s3cret"})
}

func TestConfigCommand_RejectsInvalidValues(t *testing.T) {
	f := newCLIFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown key", []string{"config", "set", "NO_SUCH_KEY", "1"}},
		{"non-numeric int", []string{"config", "set", "REVERT_TIME", "soon"}},
		{"unknown get", []string{"config", "get", "NO_SUCH_KEY"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := f.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, ErrCodeInvalidInput)
		})
	}
}

func TestLogsCommand_ListAndClear(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run("scan", "4001", "9999")
	require.NoError(t, err)

	out, err := f.run("--format", "json", "logs", "list", "--limit", "1")
	require.NoError(t, err)
	var logs []struct {
		Message string `json:"message"`
	}
	decode(t, out, &logs)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "9999")

	out, err = f.run("logs", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 log entries")
}

func TestCheckCommand(t *testing.T) {
	f := newCLIFixture(t)
	_, err := f.run("config", "set", "GROCY_API_URL", "http://grocy.local/api/")
	require.NoError(t, err)

	out, err := f.run("check")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Grocy "+catalog.MinVersion+" at http://grocy.local/api/")

	f.catalog.SetVersion("2.4.9")
	out, err = f.run("--format", "json", "check")
	require.Error(t, err)
	resp := decode(t, out, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(catalog.ErrCodeUnsupportedVersion), resp.Error.Code)
}

func TestVersionCommand(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "bbuddy ")
	assert.Contains(t, out, "Grocy "+catalog.MinVersion+" or newer")

	out, err = f.run("--format", "json", "version")
	require.NoError(t, err)
	var info VersionInfo
	decode(t, out, &info)
	assert.Equal(t, version.String(), info.Version)
}

func TestServeCommand_StopsOnCancel(t *testing.T) {
	f := newCLIFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := f.runContext(ctx, "serve", "--listen", "127.0.0.1:0")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestServeCommand_InvalidListenAddress(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run("serve", "--listen", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to listen on not-an-address")
}
