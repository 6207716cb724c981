package apitype

// Command is a payload sent to a broker topic.
type Command interface{}
