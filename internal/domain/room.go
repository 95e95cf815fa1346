package domain

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// RoomKeyLen is the length of generated keys. Short enough to read over
	// the phone, large enough to make collisions unlikely.
	RoomKeyLen    = 5
	MaxRoomKeyLen = 36

	roomKeyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	ErrRoomKeyEmpty   = errors.New("room key empty")
	ErrRoomKeyTooLong = errors.New("room key too long")
)

// RoomKey is the human-shareable identifier of a room. Entering with a fresh
// key creates the room on the relay; entering with an existing key joins it.
type RoomKey string

// NewRoomKey generates a random shareable key.
func NewRoomKey() RoomKey {
	buf := make([]byte, RoomKeyLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomKeyAlphabet))))
		if err != nil {
			panic("room key entropy: " + err.Error())
		}
		buf[i] = roomKeyAlphabet[n.Int64()]
	}
	return RoomKey(buf)
}

// ParseRoomKey validates a user-supplied key.
func ParseRoomKey(raw string) (RoomKey, error) {
	if len(raw) == 0 {
		return "", ErrRoomKeyEmpty
	}
	if len(raw) > MaxRoomKeyLen {
		return "", ErrRoomKeyTooLong
	}
	return RoomKey(raw), nil
}
