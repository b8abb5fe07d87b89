package onboarding

import (
	"context"
	"fmt"

	"github.com/go-slark/pipeline/logger"
	"github.com/go-slark/pipeline/middleware"
)

type Handler = middleware.Handler[*Request]

// OperationLogging runs outermost. A failure of the rest of the pipeline is logged and
// not returned to the caller.
type OperationLogging struct {
	next Handler
	l    logger.Logger
}

func NewOperationLogging(next Handler, l logger.Logger) *OperationLogging {
	return &OperationLogging{next: next, l: l}
}

func (o *OperationLogging) Invoke(ctx context.Context, r *Request) error {
	err := o.next(ctx, r)
	fields := logger.Fields(logger.Middleware("operation_logging"))
	if r.Customer != nil {
		fields["email"] = r.Customer.Email
		fields["customer_id"] = r.Customer.ID
	}
	if err != nil {
		fields["error"] = err
		o.l.Log(ctx, logger.ErrorLevel, fields, "add customer failed")
		return nil
	}
	o.l.Log(ctx, logger.InfoLevel, fields, "customer added")
	return nil
}

// SaveCustomerRecord stores the customer through the repository of the invocation.
type SaveCustomerRecord struct {
	next Handler
	l    logger.Logger
}

func NewSaveCustomerRecord(next Handler, l logger.Logger) *SaveCustomerRecord {
	return &SaveCustomerRecord{next: next, l: l}
}

func (s *SaveCustomerRecord) Invoke(ctx context.Context, r *Request, repo Repository) error {
	id, err := repo.SaveCustomer(ctx, r.Customer)
	if err != nil {
		return err
	}
	r.Customer.ID = id
	s.l.Log(ctx, logger.DebugLevel, map[string]interface{}{"customer_id": id}, "customer record saved")
	return s.next(ctx, r)
}

// SendWelcomeEmail sends once every later task has succeeded.
type SendWelcomeEmail struct {
	next     Handler
	notifier Notifier
	from     string
}

func NewSendWelcomeEmail(next Handler, n Notifier) *SendWelcomeEmail {
	return &SendWelcomeEmail{next: next, notifier: n, from: "admin@go-slark.dev"}
}

func (s *SendWelcomeEmail) Handle(ctx context.Context, r *Request) error {
	if err := s.next(ctx, r); err != nil {
		return err
	}
	return s.notifier.SendEmail(ctx, Email{
		From:    s.from,
		To:      r.Customer.Email,
		Subject: "Welcome",
		Body:    fmt.Sprintf("Welcome %s, your account has been activated", r.Customer.FirstName),
	})
}

// ProvisionStorage creates the customer's storage account and deletes it again when a
// later task fails.
type ProvisionStorage struct {
	next    Handler
	storage Storage
	l       logger.Logger
}

func NewProvisionStorage(next Handler, s Storage, l logger.Logger) *ProvisionStorage {
	return &ProvisionStorage{next: next, storage: s, l: l}
}

func (p *ProvisionStorage) Invoke(ctx context.Context, r *Request) error {
	account := r.Customer.ID + "-storage"
	if err := p.storage.Provision(ctx, account); err != nil {
		return err
	}
	r.StorageAccount = account

	err := p.next(ctx, r)
	if err == nil {
		return nil
	}
	if derr := p.storage.Delete(context.WithoutCancel(ctx), account); derr != nil {
		p.l.Log(ctx, logger.ErrorLevel, map[string]interface{}{
			"account": account,
			"error":   derr,
		}, "storage compensation failed")
	}
	r.StorageAccount = ""
	return err
}
