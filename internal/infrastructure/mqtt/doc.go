// Package mqtt publishes Tasklane domain events to an MQTT broker.
//
// Core only publishes: login/logout, entity CRUD and task status changes go
// out on tasklane/events/..., and a retained online/offline document is kept
// on tasklane/system/status (with a Last Will for crashes). Nothing in the
// request path waits on the broker; see the events package for the
// asynchronous publisher built on this client.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.Event("task.created"), payload)
//
// Use TLS (mqtt.broker.tls) outside local development.
package mqtt
