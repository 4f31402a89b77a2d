package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// OmiseProcessor implements Processor against Omise. Checkout creation maps
// onto a source-backed charge whose AuthorizeURI is the customer-facing
// checkout URL.
type OmiseProcessor struct {
	client *omise.Client
}

func NewOmiseProcessor(publicKey, secretKey string) (*OmiseProcessor, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	c.SetDebug(false)
	return &OmiseProcessor{client: c}, nil
}

func (p *OmiseProcessor) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	op := &operations.CreateCharge{
		Amount:    req.AmountMinor,
		Currency:  req.Currency,
		ReturnURI: req.ReturnURI,
		Metadata: map[string]interface{}{
			"description":     req.Description,
			"idempotency_key": req.IdempotencyKey,
		},
	}
	if req.SourceID != "" {
		op.Source = req.SourceID
	}
	if req.Destination != "" {
		op.Metadata["destination"] = req.Destination
		op.Metadata["platform_fee_minor"] = req.PlatformFeeMinor
	}

	charge := &omise.Charge{}
	if err := p.client.Do(charge, op); err != nil {
		return nil, fmt.Errorf("%w: create charge: %v", ErrProcessor, err)
	}
	return &ChargeResult{
		ChargeID:     charge.ID,
		AuthorizeURI: charge.AuthorizeURI,
		Paid:         charge.Paid,
		Status:       string(charge.Status),
	}, nil
}

func (p *OmiseProcessor) Refund(ctx context.Context, chargeID string, amountMinor int64) error {
	refund := &omise.Refund{}
	err := p.client.Do(refund, &operations.CreateRefund{
		ChargeID: chargeID,
		Amount:   amountMinor,
	})
	if err != nil {
		return fmt.Errorf("%w: refund charge %s: %v", ErrProcessor, chargeID, err)
	}
	return nil
}

// VerifyEvent re-reads the event at Omise by its id instead of trusting the
// webhook body. The returned EventInfo carries the embedded charge when the
// event is charge-scoped.
func (p *OmiseProcessor) VerifyEvent(ctx context.Context, eventID string) (*EventInfo, error) {
	ev := &omise.Event{}
	if err := p.client.Do(ev, &operations.RetrieveEvent{EventID: eventID}); err != nil {
		return nil, fmt.Errorf("%w: retrieve event %s: %v", ErrProcessor, eventID, err)
	}

	info := &EventInfo{Key: ev.Key}
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return info, nil
	}
	info.RawData = raw

	var ch omise.Charge
	if err := json.Unmarshal(raw, &ch); err == nil && ch.ID != "" {
		info.ChargeID = ch.ID
		info.ChargeStatus = string(ch.Status)
		info.ChargePaid = ch.Paid
		if ch.FailureCode != nil {
			info.FailureReason = *ch.FailureCode
		}
	}
	return info, nil
}

func (p *OmiseProcessor) GetCharge(ctx context.Context, chargeID string) (*ChargeResult, error) {
	charge := &omise.Charge{}
	if err := p.client.Do(charge, &operations.RetrieveCharge{ChargeID: chargeID}); err != nil {
		return nil, fmt.Errorf("%w: retrieve charge %s: %v", ErrProcessor, chargeID, err)
	}
	return &ChargeResult{
		ChargeID:     charge.ID,
		AuthorizeURI: charge.AuthorizeURI,
		Paid:         charge.Paid,
		Status:       string(charge.Status),
	}, nil
}
