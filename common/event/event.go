package event

import (
	"fmt"
	"reflect"

	messagebus "github.com/vardius/message-bus"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/common/logger"
)

// Dispatcher runs a function on the foreground (UI) context.
type Dispatcher func(fn func())

type Broker struct {
	bus messagebus.MessageBus
}

func InitBus(queueSize int) *Broker {
	return &Broker{
		bus: messagebus.New(queueSize),
	}
}

// InitDevNullBus returns a broker that drops everything sent to it.
func InitDevNullBus() *Broker {
	return &Broker{}
}

func (s *Broker) Subscribe(topic api.Topic, fn interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Subscribe(string(topic), fn); err != nil {
		logger.Error.Panic("Could not subscribe ", err)
	}
}

func (s *Broker) Unsubscribe(topic api.Topic, fn interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Unsubscribe(string(topic), fn); err != nil {
		logger.Warn.Printf("Could not unsubscribe from '%s': %s", topic, err)
	}
}

// ConnectToForeground subscribes callback so that it is always invoked
// through dispatch. Handlers of the bus run on background goroutines,
// the dispatcher moves the call to where the results are rendered.
// The returned function removes the subscription.
func (s *Broker) ConnectToForeground(topic api.Topic, callback interface{}, dispatch Dispatcher) func() {
	cb := func(params ...interface{}) {
		dispatch(func() {
			args := make([]reflect.Value, 0, len(params))
			for _, param := range params {
				args = append(args, reflect.ValueOf(param))
			}
			logger.Trace.Printf("Calling topic '%s' with: %s", topic, params)
			reflect.ValueOf(callback).Call(args)
		})
	}
	s.Subscribe(topic, cb)
	return func() {
		s.Unsubscribe(topic, cb)
	}
}

func (s *Broker) SendToTopic(topic api.Topic) {
	if s.bus == nil {
		return
	}
	logger.Trace.Printf("Sending to '%s'", topic)
	s.bus.Publish(string(topic))
}

func (s *Broker) SendCommandToTopic(topic api.Topic, command apitype.Command) {
	if s.bus == nil {
		return
	}
	logger.Trace.Printf("Sending command to '%s'", topic)
	s.bus.Publish(string(topic), command)
}

func (s *Broker) SendError(message string, err error) {
	formattedMessage := message
	if err != nil {
		formattedMessage = fmt.Sprintf("%s\n%s", message, err.Error())
	}
	logger.Error.Printf("Error: %s", formattedMessage)
	s.SendCommandToTopic(api.ShowError, &api.ErrorCommand{Message: formattedMessage})
}

func (s *Broker) Close(topics ...api.Topic) {
	if s.bus == nil {
		return
	}
	for _, topic := range topics {
		s.bus.Close(string(topic))
	}
}
