package model

import "strconv"

// RunStatistics holds the counters reported at the end of a run
type RunStatistics struct {
	TotalUsers         int `json:"totalUsers"`
	UsersWithFavorites int `json:"usersWithFavorites"`
	TotalFavorites     int `json:"totalFavorites"`
	OrphanedFavorites  int `json:"orphanedFavorites"`
	DeletedFavorites   int `json:"deletedFavorites"`
	FailedDeletions    int `json:"failedDeletions"`
	ScanFailures       int `json:"scanFailures"`
}

// RecordUser folds one scanned user into the scan counters
func (s *RunStatistics) RecordUser(user UserRecord, orphans int) {
	s.TotalFavorites += len(user.FavoriteIDs)
	s.OrphanedFavorites += orphans
	if user.HasFavorites() {
		s.UsersWithFavorites++
	}
}

// IsClean reports whether the scan found no orphans
func (s RunStatistics) IsClean() bool {
	return s.OrphanedFavorites == 0
}

// PendingDeletions is the number of orphans neither deleted nor failed
func (s RunStatistics) PendingDeletions() int {
	return s.OrphanedFavorites - s.DeletedFavorites - s.FailedDeletions
}

// Rows returns label/value pairs in report order
func (s RunStatistics) Rows() [][2]string {
	return [][2]string{
		{"Users scanned", strconv.Itoa(s.TotalUsers)},
		{"Users with favorites", strconv.Itoa(s.UsersWithFavorites)},
		{"Favorites checked", strconv.Itoa(s.TotalFavorites)},
		{"Orphaned favorites", strconv.Itoa(s.OrphanedFavorites)},
		{"Deleted", strconv.Itoa(s.DeletedFavorites)},
		{"Failed deletions", strconv.Itoa(s.FailedDeletions)},
		{"User scan failures", strconv.Itoa(s.ScanFailures)},
	}
}
