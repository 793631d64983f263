package config

type WorkerKeyStruct struct {
	PersistClientEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistClientEventsQueue: "persist_client_events_queue",
}
