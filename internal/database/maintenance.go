package database

// Optimize runs SQLite's PRAGMA optimize to refresh planner stats.
func (s *Store) Optimize() error {
	_, _, err := s.runExec("PRAGMA optimize")
	return err
}

// Vacuum rebuilds the database file to reclaim unused space.
func (s *Store) Vacuum() error {
	_, _, err := s.runExec("VACUUM")
	return err
}

// CheckpointWAL folds the write-ahead log back into the main file and
// truncates it.
func (s *Store) CheckpointWAL() error {
	_, _, err := s.runExec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}
