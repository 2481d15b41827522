package lobby

// RoomInfo is a point-in-time view of one room for the API, CLI and
// telemetry surfaces.
type RoomInfo struct {
	Name       string `json:"name"`
	GameType   int    `json:"game_type"`
	Permanent  bool   `json:"permanent"`
	Members    int    `json:"members"`
	MaxMembers int    `json:"max_members"`
	Tournament bool   `json:"tournament"`
	Keyed      bool   `json:"keyed"`
	Topic      string `json:"topic,omitempty"`
	Owner      string `json:"owner,omitempty"`
}

// ClientInfo is a point-in-time view of one connected session.
type ClientInfo struct {
	Nick       string `json:"nick,omitempty"`
	Addr       string `json:"addr"`
	Registered bool   `json:"registered"`
	Codepage   string `json:"codepage"`
}

// RoomsInfo snapshots every live room. Reactor-goroutine only; external
// callers go through the reactor's task injection.
func (f *FrontEnd) RoomsInfo() []RoomInfo {
	rooms := f.registry.All()
	out := make([]RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		info := RoomInfo{
			Name:       rm.Name(),
			GameType:   rm.Type(),
			Permanent:  rm.IsPermanent(),
			Members:    rm.MemberCount(),
			MaxMembers: rm.MaxUsers(),
			Tournament: rm.Tournament(),
			Keyed:      rm.Key() != "",
			Topic:      rm.Topic(),
		}
		if owner := rm.Owner(); owner != nil {
			info.Owner = owner.Identity()
		}
		out = append(out, info)
	}
	return out
}

// ClientsInfo snapshots every connected session in connect order.
// Reactor-goroutine only.
func (f *FrontEnd) ClientsInfo() []ClientInfo {
	out := make([]ClientInfo, 0, len(f.order))
	for _, s := range f.order {
		out = append(out, ClientInfo{
			Nick:       s.nick,
			Addr:       s.client.RemoteAddr(),
			Registered: s.registered,
			Codepage:   s.encoding,
		})
	}
	return out
}

// SessionCount returns the number of connected sessions. Reactor-goroutine
// only.
func (f *FrontEnd) SessionCount() int { return len(f.sessions) }
