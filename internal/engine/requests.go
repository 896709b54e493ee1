package engine

import (
	appmodels "datagate/internal/application/models"
	usermodels "datagate/internal/user/models"
)

// Operation names the state transition an invocation performs. The names
// appear in results, audit events, logs and metrics.
type Operation string

const (
	OperationSetUser          Operation = "set_user"
	OperationSetApplication   Operation = "set_application"
	OperationAuditApplication Operation = "audit_application"
	OperationGetApplication   Operation = "get_application"
)

// Mutates reports whether the operation writes state.
func (o Operation) Mutates() bool {
	return o != OperationGetApplication
}

// Request is one of the four invocations the engine accepts.
type Request interface {
	Operation() Operation
}

type RegisterUser struct {
	User *usermodels.User
}

func (RegisterUser) Operation() Operation { return OperationSetUser }

type SubmitApplication struct {
	Draft *appmodels.ApplicationDraft
}

func (SubmitApplication) Operation() Operation { return OperationSetApplication }

type AuditApplication struct {
	Application *appmodels.Application
}

func (AuditApplication) Operation() Operation { return OperationAuditApplication }

type ReadApplication struct {
	ApplicationID string
}

func (ReadApplication) Operation() Operation { return OperationGetApplication }

// Attribute is one key/value log record attached to a result.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Result is the outcome of a successful invocation. Log carries a single
// attribute keyed by the operation whose value is the JSON of the entity.
type Result struct {
	Operation Operation   `json:"operation"`
	Data      any         `json:"data"`
	Log       []Attribute `json:"log"`
}
