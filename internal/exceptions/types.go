package exceptions

import (
	"errors"
	"fmt"
)

type ServiceError struct {
	StatusCode int
	Cause      error
}

func (se *ServiceError) Error() string {
	return se.Cause.Error()
}

func (se *ServiceError) Unwrap() error {
	return se.Cause
}

type RequestError interface {
	ToServiceError() *ServiceError
	Error() string
}

// StatusCode resolves the HTTP status for any error, defaulting to 500.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var re RequestError
	if errors.As(err, &re) {
		return re.ToServiceError().StatusCode
	}
	return 500
}

// ConflictError is raised when a store cannot create a record because one
// with the same id already exists.
type ConflictError struct {
	Resource string
	Id       string
}

func (ce *ConflictError) Error() string {
	return fmt.Sprintf("Found conflicting %s with id: %s", ce.Resource, ce.Id)
}

func (ce *ConflictError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 409,
		Cause:      ce,
	}
}

func Conflict(resource string, id string) *ConflictError {
	return &ConflictError{
		Resource: resource,
		Id:       id,
	}
}

type NotFoundError struct {
	Resource string
	Id       string
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("Could not find a %s with id: %s", nfe.Resource, nfe.Id)
}

func (nfe *NotFoundError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 404,
		Cause:      nfe,
	}
}

func NotFound(resource string, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Id:       id,
	}
}

type InvalidInputError struct {
	Message string
}

func (ie *InvalidInputError) Error() string {
	return ie.Message
}

func (ie *InvalidInputError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 400,
		Cause:      ie,
	}
}

func InvalidInput(message string) *InvalidInputError {
	return &InvalidInputError{
		Message: message,
	}
}

// ConfigurationError means a required value (hub, callback, secret) is
// missing and cannot be derived. Retrying without new input will not help.
type ConfigurationError struct {
	Message string
}

func (ce *ConfigurationError) Error() string {
	return ce.Message
}

func (ce *ConfigurationError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 400,
		Cause:      ce,
	}
}

func Configuration(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// HubRejectedError carries the hub's response when it answers a subscribe
// request with anything other than 202 or 204.
type HubRejectedError struct {
	Hub        string
	Topic      string
	StatusCode int
	Body       string
}

func (he *HubRejectedError) Error() string {
	return fmt.Sprintf("error subscribing to %s on %s (status %d):\n%s", he.Topic, he.Hub, he.StatusCode, he.Body)
}

func (he *HubRejectedError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 502,
		Cause:      he,
	}
}

func HubRejected(hub string, topic string, statusCode int, body string) *HubRejectedError {
	return &HubRejectedError{
		Hub:        hub,
		Topic:      topic,
		StatusCode: statusCode,
		Body:       body,
	}
}

type TransportError struct {
	Url   string
	Cause error
}

func (te *TransportError) Error() string {
	return fmt.Sprintf("failed to reach %s: %v", te.Url, te.Cause)
}

func (te *TransportError) Unwrap() error {
	return te.Cause
}

func (te *TransportError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 502,
		Cause:      te,
	}
}

func Transport(url string, cause error) *TransportError {
	return &TransportError{
		Url:   url,
		Cause: cause,
	}
}

type PreconditionError struct {
	Message string
}

func (pe *PreconditionError) Error() string {
	return pe.Message
}

func (pe *PreconditionError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 500,
		Cause:      pe,
	}
}

func Precondition(message string) *PreconditionError {
	return &PreconditionError{
		Message: message,
	}
}

type InternalServerError struct {
	Message string
}

func (ie *InternalServerError) Error() string {
	return ie.Message
}

func (ie *InternalServerError) ToServiceError() *ServiceError {
	return &ServiceError{
		StatusCode: 500,
		Cause:      ie,
	}
}

func InternalServer(message string) *InternalServerError {
	return &InternalServerError{
		Message: message,
	}
}
