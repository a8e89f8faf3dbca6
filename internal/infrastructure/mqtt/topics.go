package mqtt

import "strings"

// TopicPrefix is the root of every topic Tasklane publishes.
const TopicPrefix = "tasklane"

// Topics builds Tasklane MQTT topic names.
//
//	topics := mqtt.Topics{}
//	topics.Event("task.status_changed") // "tasklane/events/task/status_changed"
type Topics struct{}

// Event returns the topic for a domain event. Dots in the event type become
// topic levels so subscribers can filter with wildcards such as
// tasklane/events/task/#.
func (Topics) Event(eventType string) string {
	return TopicPrefix + "/events/" + strings.ReplaceAll(eventType, ".", "/")
}

// AllEvents returns the wildcard matching every domain event.
func (Topics) AllEvents() string {
	return TopicPrefix + "/events/#"
}

// SystemStatus returns the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// validTopic reports whether topic can be published to. Wildcards are only
// valid in subscriptions.
func validTopic(topic string) bool {
	return topic != "" && !strings.ContainsAny(topic, "#+")
}
