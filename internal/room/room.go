// Package room implements the lobby's channel model: permanent matchmaking
// lobbies and ephemeral per-game rooms, with membership, capacity, ban and
// key rules. All room state is confined to the reactor goroutine, so the
// package uses no locking by construction.
package room

// Member is a participant in a room. Implementations are protocol sessions;
// Identity is the value ban checks and game-start lookups use.
type Member interface {
	Identity() string
}

// JoinResult is the outcome of a join attempt. AlreadyMember is an idempotent
// success, not an error; callers map the remaining outcomes to their numeric
// protocol replies.
type JoinResult int

const (
	Joined JoinResult = iota
	AlreadyMember
	Banned
	Full
	BadKey
)

// String returns a short name for the join outcome.
func (r JoinResult) String() string {
	switch r {
	case Joined:
		return "joined"
	case AlreadyMember:
		return "already_member"
	case Banned:
		return "banned"
	case Full:
		return "full"
	case BadKey:
		return "bad_key"
	default:
		return "unknown"
	}
}

// Room is one named channel. Permanent rooms are created at startup and never
// removed; ephemeral rooms are created by clients and removed when their last
// member leaves. The member slice preserves join order for name listings.
type Room struct {
	name       string
	key        string
	gameType   int
	permanent  bool
	tournament bool
	reserved   int
	flags      int
	minUsers   int
	maxUsers   int
	topic      string

	// owner is a weak relation: it always points at a current member and is
	// cleared when that member departs, never reassigned.
	owner   Member
	members []Member
	banned  map[string]struct{}
}

// New creates a room. Permanent rooms get their capacity from the caller at
// startup; ephemeral rooms have min/max set from the creation command.
func New(name, key string, gameType int, permanent bool) *Room {
	return &Room{
		name:      name,
		key:       key,
		gameType:  gameType,
		permanent: permanent,
		banned:    make(map[string]struct{}),
	}
}

func (r *Room) Name() string      { return r.name }
func (r *Room) Key() string       { return r.key }
func (r *Room) Type() int         { return r.gameType }
func (r *Room) IsPermanent() bool { return r.permanent }
func (r *Room) Tournament() bool  { return r.tournament }
func (r *Room) Reserved() int     { return r.reserved }
func (r *Room) Flags() int        { return r.flags }
func (r *Room) MinUsers() int     { return r.minUsers }
func (r *Room) MaxUsers() int     { return r.maxUsers }
func (r *Room) Topic() string     { return r.topic }

func (r *Room) SetTournament(t bool) { r.tournament = t }
func (r *Room) SetReserved(v int)    { r.reserved = v }
func (r *Room) SetMinUsers(n int)    { r.minUsers = n }
func (r *Room) SetMaxUsers(n int)    { r.maxUsers = n }
func (r *Room) SetTopic(topic string) { r.topic = topic }

// SetOwner marks m as the room owner. The relation is weak; Part clears it
// when the owner leaves.
func (r *Room) SetOwner(m Member) { r.owner = m }

// Owner returns the current owner, or nil if the owner has departed.
func (r *Room) Owner() Member { return r.owner }

// IsOwner reports whether m is the room's current owner.
func (r *Room) IsOwner(m Member) bool { return r.owner != nil && r.owner == m }

// Join attempts to add m to the room. The check order is significant:
// membership first (idempotent rejoin), then ban, then capacity, then key.
func (r *Room) Join(m Member, suppliedKey string) JoinResult {
	if r.HasMember(m) {
		return AlreadyMember
	}
	if _, ok := r.banned[m.Identity()]; ok {
		return Banned
	}
	if len(r.members) >= r.maxUsers {
		return Full
	}
	if r.key != "" && r.key != suppliedKey {
		return BadKey
	}
	r.members = append(r.members, m)
	return Joined
}

// Part removes m from the room, clearing the owner relation if m owned it.
// Returns false if m was not a member.
func (r *Room) Part(m Member) bool {
	for i, cur := range r.members {
		if cur == m {
			r.members = append(r.members[:i], r.members[i+1:]...)
			if r.owner == m {
				r.owner = nil
			}
			return true
		}
	}
	return false
}

// HasMember reports whether m is currently in the room.
func (r *Room) HasMember(m Member) bool {
	for _, cur := range r.members {
		if cur == m {
			return true
		}
	}
	return false
}

// MemberByIdentity finds a current member by identity.
func (r *Room) MemberByIdentity(identity string) (Member, bool) {
	for _, cur := range r.members {
		if cur.Identity() == identity {
			return cur, true
		}
	}
	return nil, false
}

// Members returns a snapshot of the membership in join order. Broadcasts
// iterate the snapshot so a disconnect triggered mid-delivery cannot affect
// the remaining deliveries.
func (r *Room) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// MemberCount returns the current number of members.
func (r *Room) MemberCount() int { return len(r.members) }

// Ban adds an identity to the ban set. Banned identities fail every later
// join attempt regardless of key or capacity.
func (r *Room) Ban(identity string) { r.banned[identity] = struct{}{} }

// IsBanned reports whether identity is in the ban set.
func (r *Room) IsBanned(identity string) bool {
	_, ok := r.banned[identity]
	return ok
}
