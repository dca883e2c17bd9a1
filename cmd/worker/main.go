package main

import (
	"encoding/json"
	"errors"
	"log"

	"launchcontrol/internal/handlers/business"
	"launchcontrol/internal/models"
	"launchcontrol/pkg/config"

	logrus "github.com/sirupsen/logrus"
)

// ContributionConfirmedMessage carries a confirmed contribution from the
// contribution-tracking service. Redelivery is expected; accrual is
// idempotent by source transaction reference.
type ContributionConfirmedMessage struct {
	ContributorID string `json:"contributor_id"`
	ReferrerID    string `json:"referrer_id"`
	Amount        string `json:"amount"`
	Asset         string `json:"asset"`
	Chain         string `json:"chain"`
	SourceTxRef   string `json:"source_tx_ref"`
}

// RoundSignalMessage carries settlement, vesting or lock status updates
// from the external trackers.
type RoundSignalMessage struct {
	RoundID         uint   `json:"round_id"`
	Signal          string `json:"signal"` // "settlement", "vesting" or "lock"
	Result          string `json:"result"`
	RaisedAmount    string `json:"raised_amount"`
	Status          string `json:"status"`
	MerkleRoot      string `json:"merkle_root"`
	ScheduleRef     string `json:"schedule_ref"`
	LockTxSignature string `json:"lock_tx_signature"`
}

// permanent reports whether an error can never succeed on redelivery, so
// requeueing the message would only poison the queue.
func permanent(err error) bool {
	var notFound *business.NotFoundError
	var validation *business.ValidationError
	var conflict *business.ConflictError
	var expired *business.ExpiredActionError
	return errors.As(err, &notFound) || errors.As(err, &validation) ||
		errors.As(err, &conflict) || errors.As(err, &expired)
}

func handleContribution(msg []byte) error {
	var m ContributionConfirmedMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logrus.Errorf("Failed to unmarshal contribution message: %v", err)
		return nil // malformed, drop
	}
	if m.ReferrerID == "" {
		// contribution without a referrer accrues nothing
		return nil
	}

	entry, err := business.AccrueReferralReward(m.ReferrerID, models.ReferralSourceContribution,
		m.SourceTxRef, m.Amount, m.Asset, m.Chain)
	if err != nil {
		var conflict *business.ConflictError
		if errors.As(err, &conflict) {
			logrus.WithFields(logrus.Fields{
				"source_tx_ref": m.SourceTxRef,
				"referrer_id":   m.ReferrerID,
			}).Info("duplicate contribution delivery ignored")
			return nil
		}
		if permanent(err) {
			logrus.Errorf("Rejected contribution accrual for %s: %v", m.SourceTxRef, err)
			return nil
		}
		return err // transient, requeue
	}

	logrus.WithFields(logrus.Fields{
		"entry_id":      entry.ID,
		"referrer_id":   m.ReferrerID,
		"amount":        m.Amount,
		"source_tx_ref": m.SourceTxRef,
	}).Info("referral reward accrued")
	return nil
}

func handleRoundSignal(msg []byte) error {
	var m RoundSignalMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		logrus.Errorf("Failed to unmarshal round signal: %v", err)
		return nil
	}

	var err error
	switch m.Signal {
	case "settlement":
		_, err = business.ApplySettlement(m.RoundID, m.Result, m.RaisedAmount)
	case "vesting":
		err = business.UpdateVestingStatus(m.RoundID, m.Status, m.MerkleRoot, m.ScheduleRef)
	case "lock":
		err = business.UpdateLockStatus(m.RoundID, m.Status, m.LockTxSignature)
	default:
		logrus.Errorf("Unknown round signal %q for round %d", m.Signal, m.RoundID)
		return nil
	}
	if err != nil {
		if permanent(err) {
			logrus.Errorf("Rejected %s signal for round %d: %v", m.Signal, m.RoundID, err)
			return nil
		}
		return err
	}

	// every applied signal is a chance for the round to gate
	eval, err := business.TryMarkSuccessGated(m.RoundID)
	if err != nil {
		if permanent(err) {
			// failed rounds and the like never gate, nothing to retry
			return nil
		}
		return err
	}

	logrus.WithFields(logrus.Fields{
		"round_id": m.RoundID,
		"signal":   m.Signal,
		"outcome":  eval.Outcome,
		"missing":  eval.Result.Missing,
	}).Info("gate evaluation after signal")
	return nil
}

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	// Initialize RabbitMQ
	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	contribConsumer, err := config.NewConsumer(config.QueueContributionConfirmed)
	if err != nil {
		logrus.Fatal("Failed to create contribution consumer: ", err)
	}
	defer contribConsumer.Close()

	signalConsumer, err := config.NewConsumer(config.QueueRoundSignal)
	if err != nil {
		logrus.Fatal("Failed to create round signal consumer: ", err)
	}
	defer signalConsumer.Close()

	logrus.Info("Launch finalization worker started, waiting for messages...")

	go func() {
		if err := contribConsumer.Consume(handleContribution); err != nil {
			log.Fatal("Contribution consumer stopped: ", err)
		}
	}()

	if err := signalConsumer.Consume(handleRoundSignal); err != nil {
		log.Fatal("Round signal consumer stopped: ", err)
	}
}
