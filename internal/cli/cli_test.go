package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"InsiderSentinel/internal/server"
	"InsiderSentinel/internal/store"
)

const filing = `<SEC-DOCUMENT>
<XML>
<?xml version="1.0"?>
<ownershipDocument>
  <issuer><issuerName>Acme Corp</issuerName><issuerTradingSymbol>ACME</issuerTradingSymbol></issuer>
  <reportingOwner>
    <reportingOwnerId><rptOwnerName>Jane Doe</rptOwnerName></reportingOwnerId>
    <reportingOwnerRelationship><isOfficer>1</isOfficer></reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable><nonDerivativeTransaction>
    <transactionDate><value>2024-03-01</value></transactionDate>
    <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
    <transactionAmounts>
      <transactionShares><value>400,000</value></transactionShares>
      <transactionPricePerShare><value>30.00</value></transactionPricePerShare>
    </transactionAmounts>
  </nonDerivativeTransaction></nonDerivativeTable>
</ownershipDocument>
</XML>
</SEC-DOCUMENT>`

func archive(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Archives/edgar/daily-index/2024/QTR1/master.20240301.idx":
			fmt.Fprint(w, "CIK|Company Name|Form Type|Date Filed|Filename\n"+
				"--------------------------------------------------------------------------------\n"+
				"1|ACME CORP|4|20240301|edgar/data/1/0001.txt\n")
		case "/Archives/edgar/data/1/0001.txt":
			fmt.Fprint(w, filing)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dashboard(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "trades.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	engine := server.NewEngine(zap.NewNop(), &server.TradeHandler{Store: st, APIKey: "secret", Logger: zap.NewNop()})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, st
}

func writeConfig(t *testing.T, secURL, dashURL string) string {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "SEC_BASE_URL", "SEC_USER_AGENT", "SEC_WORKERS", "DASHBOARD_API_KEY", "DASHBOARD_PRIVATE_KEY",
		"DASHBOARD_URL", "LISTEN_ADDR", "MIN_TRADE_VALUE", "DATA_FILE", "SQLITE_PATH", "CRON_DAILY",
		"CRON_CLEANUP", "RUN_ON_START", "LOG_LEVEL", "LOG_FILE", "HTTPS_PROXY",
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`sec:
  base_url: %s
  user_agent: "Test Suite test@example.com"
  workers: 2
dashboard:
  api_key: secret
  url: %s
database:
  sqlite_path: %s
log:
  level: error
`, secURL, dashURL, filepath.Join(dir, "runs.db"))
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, error) {
	app := &App{}
	defer app.close()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRun_UploadsAndRecords(t *testing.T) {
	sec := archive(t)
	dash, st := dashboard(t)
	cfg := writeConfig(t, sec.URL, dash.URL)

	out, err := execute("run", "--config", cfg, "--date", "2024-03-01")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{
		"AGGREGATE INSIDER TRADING REPORT (Targeting: 2024-03-01)",
		"Code P: 1 transactions",
		"$12,000,000.00",
		"Acme Corp",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	trades, err := st.Query(store.QueryOptions{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(trades) != 1 || trades[0].Ticker != "ACME" || trades[0].PersonTitle != "Officer" {
		t.Errorf("stored trades = %+v", trades)
	}

	hist, err := execute("history", "--config", cfg)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(hist, "2024-03-01") || !strings.Contains(hist, "ok") {
		t.Errorf("history:\n%s", hist)
	}
}

func TestRun_NoUploadNeedsNoKey(t *testing.T) {
	sec := archive(t)
	dash, st := dashboard(t)
	cfg := writeConfig(t, sec.URL, dash.URL)
	raw, _ := os.ReadFile(cfg)
	if err := os.WriteFile(cfg, bytes.Replace(raw, []byte("api_key: secret"), []byte("api_key: \"\""), 1), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute("run", "--config", cfg, "--date", "2024-03-01"); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("run without key = %v, want api_key error", err)
	}
	if out, err := execute("run", "--config", cfg, "--date", "2024-03-01", "--no-upload"); err != nil {
		t.Fatalf("run --no-upload: %v\n%s", err, out)
	}
	if trades, _ := st.Query(store.QueryOptions{}); len(trades) != 0 {
		t.Errorf("store should be untouched, got %d trades", len(trades))
	}
}

func TestRun_InvalidDate(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	if _, err := execute("run", "--config", cfg, "--date", "03/01/2024", "--no-upload"); err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("err = %v, want date format error", err)
	}
}

func TestClean(t *testing.T) {
	dash, _ := dashboard(t)
	cfg := writeConfig(t, "http://127.0.0.1:1", dash.URL)
	out, err := execute("clean", "--config", cfg)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("clean should print the server message")
	}
}

func TestHistory_Empty(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	out, err := execute("history", "--config", cfg, "--limit", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("out = %q", out)
	}
	if _, err := execute("history", "--config", cfg, "--limit", "0"); err == nil {
		t.Error("expected error for --limit 0")
	}
}
