package realtime

import (
	"encoding/json"
	"errors"

	"github.com/dragonlab/mimokit/pkg/notifications"
)

// EventTransferCompleted is the domain event announcing a settled transfer.
const EventTransferCompleted = "transfer.completed"

// Transfer directions carried in the event's type field.
const (
	TransferTypeBuy  = 1
	TransferTypeSell = 2
)

// TransferStatusSuccess marks a settled transfer; any other status value is
// surfaced as an error toast.
const TransferStatusSuccess = 1

// TransferCompletedEvent is the payload of EventTransferCompleted.
type TransferCompletedEvent struct {
	Address         string  `json:"address"`
	AmountUSDT      float64 `json:"amount_usdt"`
	AmountVND       float64 `json:"amount_vnd"`
	AmountVNDReal   float64 `json:"amount_vnd_real"`
	Rate            float64 `json:"rate"`
	FeePercent      float64 `json:"fee_percent"`
	FeeVND          float64 `json:"fee_vnd"`
	BankAccount     string  `json:"bank_account"`
	BankName        string  `json:"bank_name"`
	TransactionHash string  `json:"transaction_hash"`
	Network         string  `json:"network"`
	SentAt          string  `json:"sent_at"`
	Status          int     `json:"status"`
	Note            string  `json:"note"`
	Type            int     `json:"type"`
}

// ParseTransferCompleted decodes an event payload.
func ParseTransferCompleted(data []byte) (*TransferCompletedEvent, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	var ev TransferCompletedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	return &ev, nil
}

// Severity maps the transfer status onto a toast severity.
func (e *TransferCompletedEvent) Severity() notifications.Severity {
	if e.Status == TransferStatusSuccess {
		return notifications.SeveritySuccess
	}
	return notifications.SeverityError
}
