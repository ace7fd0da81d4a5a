package events

type EventType string

const (
	EventTypeVaccine        EventType = "VACCINE"
	EventTypeMedication     EventType = "MEDICATION"
	EventTypeDiaryNote      EventType = "DIARY_NOTE"
	EventTypeVetVisit       EventType = "VET_VISIT"
	EventTypeWeightRecorded EventType = "WEIGHT_RECORDED"
)

type ActorType string

const (
	ActorTypeOwnerUser ActorType = "OWNER_USER"
	ActorTypeVetUser   ActorType = "VET_USER"
)

type EventStatus string

const (
	EventStatusActive EventStatus = "active"
	EventStatusVoided EventStatus = "voided"
)
