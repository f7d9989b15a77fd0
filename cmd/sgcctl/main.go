// cmd/sgcctl runs the analytics engine over a sample file or a window of
// the SQLite archive: render frames, statistics, anomalies, variance
// analysis, CSV exports, stability scores, threshold alerts and saved chart
// sessions.
//
// Usage:
//
//	sgcctl render -i samples.json --from=10 --to=40
//	sgcctl export records -i samples.csv -o chart.csv
//	sgcctl session save --name=morning --chart=chart.yaml
//	sgcctl archive import -i samples.csv --archive=sgc.db
//	sgcctl render --archive=sgc.db --since=100 --until=300
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
