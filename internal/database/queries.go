package database

// Sighting queries
const (
	UpsertSightingQuery = `
		INSERT INTO pending_sightings (
			owner, src_tx_hash, dst_eid, status, lz_tx_page,
			first_seen, last_seen, last_scan_id, seen_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(owner, src_tx_hash) DO UPDATE SET
			dst_eid = CASE WHEN excluded.dst_eid != '' THEN excluded.dst_eid ELSE pending_sightings.dst_eid END,
			status = excluded.status,
			lz_tx_page = excluded.lz_tx_page,
			last_seen = excluded.last_seen,
			last_scan_id = excluded.last_scan_id,
			seen_count = pending_sightings.seen_count + 1
	`

	SelectSightingQuery = `
		SELECT id, owner, src_tx_hash, dst_eid, status, lz_tx_page,
			   first_seen, last_seen, last_scan_id, seen_count
		FROM pending_sightings
		WHERE owner = ? AND src_tx_hash = ?
	`

	ListSightingsQuery = `
		SELECT id, owner, src_tx_hash, dst_eid, status, lz_tx_page,
			   first_seen, last_seen, last_scan_id, seen_count
		FROM pending_sightings
		WHERE owner = ?
		ORDER BY last_seen DESC, id ASC
		LIMIT ?
	`

	PruneSightingsQuery = `
		DELETE FROM pending_sightings
		WHERE last_seen < ?
	`

	CountSightingsQuery = `
		SELECT COUNT(*) FROM pending_sightings
	`
)
