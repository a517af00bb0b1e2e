package models

import (
	"fmt"
	"strings"
	"time"
)

// Single-table key prefixes
const (
	InterestPrefix = "INTEREST#"
	MatchPrefix    = "MATCH#"
	UserPrefix     = "USER#"
	PairPrefix     = "PAIR#"

	MetaSK      = "META"
	StateSK     = "STATE"
	MessageSK   = "MSG#"
	QuotaSK     = "QUOTA#"
	pairKeySep  = "#"
	sortTimeFmt = "2006-01-02T15:04:05.000000000Z"
)

// PairKey canonicalizes an unordered user pair.
func PairKey(userA, userB string) string {
	a, b := CanonicalPair(userA, userB)
	return a + pairKeySep + b
}

// CanonicalPair orders two user ids lexicographically.
func CanonicalPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

// SplitPairKey is the inverse of PairKey.
func SplitPairKey(pairKey string) (string, string, bool) {
	a, b, ok := strings.Cut(pairKey, pairKeySep)
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

func InterestPK(from string) string { return InterestPrefix + from }

func InterestSK(to, venueID string) string {
	return "TO#" + to + "#VENUE#" + venueID
}

// InterestSKPrefix matches every Interest from one user to another, across venues
func InterestSKPrefix(to string) string { return "TO#" + to + "#VENUE#" }

func MatchPK(matchID string) string { return MatchPrefix + matchID }

func UserPK(userID string) string { return UserPrefix + userID }

// UserMatchSK orders a user's match links by creation time.
func UserMatchSK(createdAt time.Time, matchID string) string {
	return MatchPrefix + SortableTime(createdAt) + "#" + matchID
}

func PairPK(pairKey string) string { return PairPrefix + pairKey }

func MessageSKFor(createdAt time.Time, messageID string) string {
	return MessageSK + SortableTime(createdAt) + "#" + messageID
}

// QuotaSlotPrefix matches every quota slot of one sender.
func QuotaSlotPrefix(senderID string) string { return QuotaSK + senderID + "#" }

// QuotaSlotSK names the n-th message slot of a sender within a thread.
func QuotaSlotSK(senderID string, n int) string {
	return fmt.Sprintf("%s%06d", QuotaSlotPrefix(senderID), n)
}

// SortableTime renders t in fixed width UTC so that string order is time order.
func SortableTime(t time.Time) string {
	return t.UTC().Format(sortTimeFmt)
}
