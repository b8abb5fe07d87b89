// Package onboarding adds a customer through a pipeline: log the operation, validate
// the record, save it, provision storage and send a welcome email once everything else
// succeeded.
package onboarding

import (
	"time"

	"github.com/go-slark/pipeline/di"
)

type Customer struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Modified  time.Time `json:"modified"`
}

// Request carries one customer through the pipeline. Tasks fill in the ids as they go.
type Request struct {
	Customer       *Customer `validate:"required"`
	InvocationID   string
	StorageAccount string

	services di.Resolver
}

func NewRequest(services di.Resolver, c *Customer) *Request {
	return &Request{
		Customer: c,
		services: services,
	}
}

func (r *Request) Services() di.Resolver {
	return r.services
}
