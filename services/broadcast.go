package services

import "mess-management-api/realtime"

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, any) {}

func orNop(b realtime.Broadcaster) realtime.Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}
