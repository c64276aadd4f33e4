package badge

import (
	"alertbadge-go/bus"
	"alertbadge-go/types"
)

var (
	topicMode      = bus.T("state", "mode")
	topicAlert     = bus.T("state", "alert")
	topicLink      = bus.T("state", "link")
	topicReachable = bus.T("state", "reachable")
	topicProfile   = bus.T("config", "profile")
)

type published struct {
	valid   bool
	mode    types.Mode
	alert   bool
	link    types.LinkState
	reach   bool
	profile types.ProfileSummary
}

// publish announces changed state as retained messages.
func (a *App) publish() {
	now := published{
		valid:   true,
		mode:    a.Mode(),
		alert:   a.st.Alert,
		link:    a.st.Link,
		reach:   a.st.Reachable,
		profile: a.st.Profile.Summary(),
	}
	was := a.pub
	a.pub = now
	send := func(t bus.Topic, v any) { a.conn.Publish(a.conn.NewMessage(t, v, true)) }

	if !was.valid || was.mode != now.mode {
		send(topicMode, now.mode.String())
	}
	if !was.valid || was.alert != now.alert {
		send(topicAlert, now.alert)
	}
	if !was.valid || was.link != now.link {
		send(topicLink, now.link.String())
	}
	if !was.valid || was.reach != now.reach {
		send(topicReachable, now.reach)
	}
	if !was.valid || was.profile != now.profile {
		send(topicProfile, now.profile)
	}
}
