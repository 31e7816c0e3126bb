package explorer

import (
	"html/template"
	"log"
	"net/http"
	"sort"

	"example.com/anctoken/pkg/ledger"
)

// Explorer serves a read-only web view of the ledger
type Explorer struct {
	Ledger    *ledger.Ledger
	Store     *ledger.Store
	templates *template.Template
}

// BalanceRow represents one account's information to be displayed
type BalanceRow struct {
	Address string
	Balance uint64
}

type pageData struct {
	Name        string
	Symbol      string
	TotalSupply uint64
	Owner       string
	Balances    []BalanceRow
	Transfers   []ledger.Record
}

// NewExplorer initializes the ledger explorer
func NewExplorer(l *ledger.Ledger, store *ledger.Store) *Explorer {
	return &Explorer{
		Ledger:    l,
		Store:     store,
		templates: template.Must(template.New("index").Parse(indexTemplate)),
	}
}

// ServeHTTP renders the balance table and the recent transfers
func (e *Explorer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	balances := e.Ledger.Balances()
	rows := make([]BalanceRow, 0, len(balances))
	for addr, bal := range balances {
		rows = append(rows, BalanceRow{Address: addr, Balance: bal})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Balance != rows[j].Balance {
			return rows[i].Balance > rows[j].Balance
		}
		return rows[i].Address < rows[j].Address
	})

	data := pageData{
		Name:        e.Ledger.Name(),
		Symbol:      e.Ledger.Symbol(),
		TotalSupply: e.Ledger.TotalSupply(),
		Owner:       e.Ledger.Owner(),
		Balances:    rows,
	}

	if e.Store != nil {
		transfers, err := e.Store.Transfers("", 20)
		if err != nil {
			log.Printf("Failed to load transfer history: %v", err)
		} else {
			// newest first
			for i, j := 0, len(transfers)-1; i < j; i, j = i+1, j-1 {
				transfers[i], transfers[j] = transfers[j], transfers[i]
			}
			data.Transfers = transfers
		}
	}

	if err := e.templates.ExecuteTemplate(w, "index", data); err != nil {
		log.Printf("Failed to render explorer page: %v", err)
	}
}

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
	<title>{{.Name}} Explorer</title>
	<style>
		body { font-family: monospace; margin: 2em; }
		table { border-collapse: collapse; margin-bottom: 2em; }
		th, td { border: 1px solid #999; padding: 4px 10px; text-align: left; }
	</style>
</head>
<body>
	<h1>{{.Name}} ({{.Symbol}})</h1>
	<p>Total supply: {{.TotalSupply}} &mdash; Owner: {{.Owner}}</p>

	<h2>Balances</h2>
	<table>
		<tr><th>Address</th><th>Balance</th></tr>
		{{range .Balances}}<tr><td>{{.Address}}</td><td>{{.Balance}}</td></tr>
		{{end}}
	</table>

	<h2>Recent transfers</h2>
	<table>
		<tr><th>Time</th><th>From</th><th>To</th><th>Amount</th></tr>
		{{range .Transfers}}<tr><td>{{.Timestamp.Format "2006-01-02 15:04:05"}}</td><td>{{.From}}</td><td>{{.To}}</td><td>{{.Amount}}</td></tr>
		{{end}}
	</table>
</body>
</html>
`
