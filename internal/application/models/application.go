package models

import (
	"slices"

	dErrors "datagate/pkg/domain-errors"
)

// ResultCode is the audit outcome of an application.
type ResultCode int

const (
	ResultPending  ResultCode = 0
	ResultApproved ResultCode = 1
	ResultRejected ResultCode = 2
)

func (r ResultCode) String() string {
	switch r {
	case ResultPending:
		return "pending"
	case ResultApproved:
		return "approved"
	case ResultRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// DataItem references off-store content by name and content hash.
type DataItem struct {
	DataName string `json:"data_name"`
	DataHash string `json:"data_hash"`
}

// ApplicationDraft is what an enterprise submits. It has no outcome yet.
type ApplicationDraft struct {
	Enterprise        string     `json:"enterprise"`
	TimeStamp         int64      `json:"time_stamp"`
	ApplicationID     string     `json:"application_id"`
	ApplicationType   string     `json:"application_type"`
	ApplicationEntity string     `json:"application_entity"`
	Data              []DataItem `json:"data"`
	Permission        []string   `json:"permission"`
}

// Application is a data-sharing request. It starts pending and is moved to
// approved or rejected by an audit, which replaces the whole record.
type Application struct {
	Enterprise        string     `json:"enterprise"`
	TimeStamp         int64      `json:"time_stamp"`
	ApplicationID     string     `json:"application_id"`
	ApplicationType   string     `json:"application_type"`
	ApplicationEntity string     `json:"application_entity"`
	Data              []DataItem `json:"data"`
	Permission        []string   `json:"permission"`
	Result            ResultCode `json:"result"`
	Reason            string     `json:"reason"`
}

// Validate checks every field a submission must carry.
func (d *ApplicationDraft) Validate() error {
	switch {
	case d.Enterprise == "":
		return dErrors.New(dErrors.CodeValidation, "application enterprise is empty")
	case d.TimeStamp <= 0:
		return dErrors.New(dErrors.CodeValidation, "application time stamp is invalid")
	case d.ApplicationID == "":
		return dErrors.New(dErrors.CodeValidation, "application id is empty")
	case d.ApplicationEntity == "":
		return dErrors.New(dErrors.CodeValidation, "application entity is empty")
	case d.ApplicationType == "":
		return dErrors.New(dErrors.CodeValidation, "application type is empty")
	case len(d.Data) == 0:
		return dErrors.New(dErrors.CodeValidation, "application data is empty")
	case len(d.Permission) == 0:
		return dErrors.New(dErrors.CodeValidation, "application permission is empty")
	}
	return nil
}

// Pending builds the stored record for a fresh submission: every field copied,
// result pending and no reason.
func (d *ApplicationDraft) Pending() *Application {
	return &Application{
		Enterprise:        d.Enterprise,
		TimeStamp:         d.TimeStamp,
		ApplicationID:     d.ApplicationID,
		ApplicationType:   d.ApplicationType,
		ApplicationEntity: d.ApplicationEntity,
		Data:              slices.Clone(d.Data),
		Permission:        slices.Clone(d.Permission),
		Result:            ResultPending,
		Reason:            "",
	}
}

// Clone returns a deep copy.
func (a *Application) Clone() *Application {
	c := *a
	c.Data = slices.Clone(a.Data)
	c.Permission = slices.Clone(a.Permission)
	return &c
}
