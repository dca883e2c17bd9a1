package main

import (
	"os"

	"launchcontrol/internal/handlers/business"
	dbconfig "launchcontrol/pkg/config"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"
)

// SweepExpiredActions transitions every pending admin action past its
// expiry. Lazy reads already report these as expired, the sweep only
// persists the fact.
func SweepExpiredActions() error {
	expired, err := business.SweepExpiredActions()
	if err != nil {
		logger.Errorf("> admin action sweep failed: %v", err)
		return err
	}
	if expired > 0 {
		logger.Infof("> swept %d expired admin actions", expired)
	}
	return nil
}

// ReEvaluateUngatedRounds retries gating for every SUCCESS-settled round
// that has not been stamped yet. The operation is idempotent, so a round
// gated between listing and evaluation just reports ALREADY_GATED.
func ReEvaluateUngatedRounds() error {
	rounds, err := business.ListUngatedRounds()
	if err != nil {
		logger.Errorf("> listing ungated rounds failed: %v", err)
		return err
	}

	for _, round := range rounds {
		eval, err := business.TryMarkSuccessGated(round.ID)
		if err != nil {
			logger.Errorf("> gate evaluation for round %d failed: %v", round.ID, err)
			continue
		}
		switch eval.Outcome {
		case business.OutcomeGated:
			logger.Infof("> round %d success gated by sweep", round.ID)
		case business.OutcomeNotReady:
			logger.Infof("> round %d not ready, missing gates: %v", round.ID, eval.Result.Missing)
		}
	}
	return nil
}

func main() {
	// log to file when possible
	os.MkdirAll("logs", 0755)
	file, err := os.OpenFile("logs/finalization_sweep.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		logger.SetOutput(file)
	} else {
		logger.Warn("cannot open log file, logging to stdout")
	}

	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)

	dbconfig.InitDB()
	logger.Info("> database connection initialized")

	c := cron.New(cron.WithSeconds())

	// every 5 minutes
	_, err = c.AddFunc("0 */5 * * * *", func() {
		if err := SweepExpiredActions(); err != nil {
			return
		}
		if err := ReEvaluateUngatedRounds(); err != nil {
			return
		}
	})
	if err != nil {
		logger.Fatalf("> failed to register sweep job: %v", err)
	}

	logger.Info("> sweep job started, running every 5 minutes")
	c.Start()

	// keep the process alive
	select {}
}
