package model

import (
	"sort"

	"favorites-reconciler/internal/shared/firestore"
)

// Canonical collection names used by the bot app
const (
	DefaultBotsCollection         = "bots"
	DefaultUsersCollection        = "users"
	DefaultFavoritesSubcollection = "favorites"
)

// IDSet is the authoritative set of bot IDs for one run. It is built once and
// only ever queried afterwards.
type IDSet struct {
	ids map[string]struct{}
}

// NewIDSet builds a set from the given IDs; duplicates collapse
func NewIDSet(ids []string) IDSet {
	set := IDSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is a member of the set
func (s IDSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of distinct IDs
func (s IDSet) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether the set has no members
func (s IDSet) IsEmpty() bool {
	return len(s.ids) == 0
}

// UserRecord is a user document together with the IDs of its favorites
type UserRecord struct {
	UserID      string
	FavoriteIDs []string
}

// HasFavorites reports whether the user has at least one favorite
func (u UserRecord) HasFavorites() bool {
	return len(u.FavoriteIDs) > 0
}

// OrphanedFavorite is a favorite whose ID is absent from the authoritative set
type OrphanedFavorite struct {
	UserID         string `json:"userId"`
	FavoriteID     string `json:"favoriteId"`
	CollectionPath string `json:"collectionPath"`
}

// NewOrphanedFavorite builds an orphan under usersCollection/userID/favoritesCollection
func NewOrphanedFavorite(usersCollection, userID, favoritesCollection, favoriteID string) OrphanedFavorite {
	return OrphanedFavorite{
		UserID:         userID,
		FavoriteID:     favoriteID,
		CollectionPath: firestore.JoinPaths(usersCollection, userID, favoritesCollection),
	}
}

// Path is the display path users/{userID}/favorites/{favoriteID}
func (o OrphanedFavorite) Path() string {
	return o.CollectionPath + "/" + o.FavoriteID
}

// SortOrphans orders orphans by (UserID, FavoriteID)
func SortOrphans(orphans []OrphanedFavorite) {
	sort.Slice(orphans, func(i, j int) bool {
		if orphans[i].UserID != orphans[j].UserID {
			return orphans[i].UserID < orphans[j].UserID
		}
		return orphans[i].FavoriteID < orphans[j].FavoriteID
	})
}

// FindOrphans returns the favorites of user that are not in the authoritative set,
// in the order they were listed
func FindOrphans(authoritative IDSet, usersCollection, favoritesCollection string, user UserRecord) []OrphanedFavorite {
	var orphans []OrphanedFavorite
	for _, favoriteID := range user.FavoriteIDs {
		if !authoritative.Contains(favoriteID) {
			orphans = append(orphans, NewOrphanedFavorite(usersCollection, user.UserID, favoritesCollection, favoriteID))
		}
	}
	return orphans
}
