package catalog

import (
	"strings"
	"unicode"

	"lodgedesk/internal/domain"
)

type aliasKey struct {
	location string
	alias    string
}

// Snapshot is an immutable view of the room catalog plus the alias table.
// Resolution is pure over a snapshot so concurrent syncs and staff actions
// never observe a half-updated catalog.
type Snapshot struct {
	rooms   map[string]domain.Room
	ordered []domain.Room
	aliases map[aliasKey]string
}

func NewSnapshot(rooms []domain.Room, aliases []domain.RoomAlias) *Snapshot {
	s := &Snapshot{
		rooms:   make(map[string]domain.Room, len(rooms)),
		ordered: rooms,
		aliases: make(map[aliasKey]string, len(aliases)),
	}
	for _, r := range rooms {
		s.rooms[r.ID] = r
	}
	for _, a := range aliases {
		k := aliasKey{location: NormalizeLocation(a.Location), alias: NormalizeRoomToken(a.Alias)}
		s.aliases[k] = a.RoomID
	}
	return s
}

func (s *Snapshot) Rooms() []domain.Room {
	return s.ordered
}

func (s *Snapshot) Room(id string) (domain.Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

// Resolve maps a loosely-formatted room token to a canonical room id.
// Order: exact catalog id, then per-location alias, then ErrRoomNotResolved.
// Resolving an already-canonical id is the identity.
func (s *Snapshot) Resolve(rawType, rawLocation string) (string, error) {
	token := NormalizeRoomToken(rawType)
	loc := NormalizeLocation(rawLocation)

	if _, ok := s.rooms[rawType]; ok {
		return rawType, nil
	}
	if _, ok := s.rooms[token]; ok {
		return token, nil
	}
	if id, ok := s.aliases[aliasKey{location: loc, alias: token}]; ok {
		return id, nil
	}
	return "", ErrRoomNotResolved
}

// NormalizeRoomToken lower-cases and strips everything that is not a letter
// or digit, except underscores, which canonical ids are built from.
func NormalizeRoomToken(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func NormalizeLocation(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
