package main

import (
	"os"

	"gitee.com/czyczk/confidential-airdrop/cmd/submissionstat/calc"
	"gitee.com/czyczk/confidential-airdrop/internal/appinit"
	"gitee.com/czyczk/confidential-airdrop/internal/db"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Reads the submission history configured in the server config file and reports confirmation latencies.
func main() {
	configPath := "serve.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	serverInfo, err := appinit.LoadServerInfo(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if serverInfo.Database.Driver == "" {
		log.Fatal(errors.Errorf("config file '%v' does not enable the database", configPath))
	}

	localDB, err := db.OpenLocalDB(serverInfo.Database.Driver, serverInfo.Database.DSN)
	if err != nil {
		log.Fatal(err)
	}

	records, err := db.ListSubmissionsFromLocalDB(-1, localDB)
	if err != nil {
		log.Fatal(err)
	}

	stats, err := calc.CalcConfirmationStats(records)
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to calculate the statistics"))
	}

	log.Infof("Submissions-confirmed/failed/pending: %v/%v/%v", stats.Confirmed, stats.Failed, stats.Submitted)
	log.Infof("Recipients covered: %v", stats.Recipients)
	log.Infof("Overall consumption: %v", stats.OverallConsumption)
	log.Infof("Average consumption: %v", stats.AvgConsumption)
	log.Infof("Max consumption: %v", stats.MaxConsumption)
}
