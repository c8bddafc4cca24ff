package audit

import (
	"encoding/json"
	"log"
	"time"
)

// Event is one structured audit record. Every ledger mutation and every
// failed purchase attempt gets one.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	AccountID string    `json:"account_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogEntry(accountID string, amount int64, kind string, balanceAfter int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: kind,
		AccountID: accountID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]int64{"balance_after": balanceAfter},
	})
}

func (a *Logger) LogUnlock(userID, targetID, targetType string, coinsSpent int64) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "UNLOCK",
		AccountID: userID,
		Amount:    -coinsSpent,
		Status:    "SUCCESS",
		Details: map[string]string{
			"target_id":   targetID,
			"target_type": targetType,
		},
	})
}

func (a *Logger) LogError(accountID, operation string, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: operation,
		AccountID: accountID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[AUDIT] Failed to marshal event: %v", err)
		return
	}
	log.Printf("[AUDIT] %s", data)
}
