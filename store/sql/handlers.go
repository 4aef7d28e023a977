package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func issueHandlers() repository.ModelHandlers[*issueRecord] {
	return repository.ModelHandlers[*issueRecord]{
		NewRecord: func() *issueRecord {
			return &issueRecord{}
		},
		GetID: func(record *issueRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *issueRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *issueRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func labelHandlers() repository.ModelHandlers[*labelRecord] {
	return repository.ModelHandlers[*labelRecord]{
		NewRecord: func() *labelRecord {
			return &labelRecord{}
		},
		GetID: func(record *labelRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *labelRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *labelRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func milestoneHandlers() repository.ModelHandlers[*milestoneRecord] {
	return repository.ModelHandlers[*milestoneRecord]{
		NewRecord: func() *milestoneRecord {
			return &milestoneRecord{}
		},
		GetID: func(record *milestoneRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *milestoneRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *milestoneRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func issueLabelHandlers() repository.ModelHandlers[*issueLabelRecord] {
	return repository.ModelHandlers[*issueLabelRecord]{
		NewRecord: func() *issueLabelRecord {
			return &issueLabelRecord{}
		},
		GetID: func(record *issueLabelRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *issueLabelRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *issueLabelRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func eventHandlers() repository.ModelHandlers[*eventRecord] {
	return repository.ModelHandlers[*eventRecord]{
		NewRecord: func() *eventRecord {
			return &eventRecord{}
		},
		GetID: func(record *eventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *eventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *eventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func dailyTotalHandlers() repository.ModelHandlers[*dailyTotalRecord] {
	return repository.ModelHandlers[*dailyTotalRecord]{
		NewRecord: func() *dailyTotalRecord {
			return &dailyTotalRecord{}
		},
		GetID: func(record *dailyTotalRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *dailyTotalRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *dailyTotalRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
