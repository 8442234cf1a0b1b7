package store

// Schema creates the snapshot tables. Elements are stored as JSON payloads
// alongside their embedding vectors (little-endian float32 blobs) so a
// snapshot's index can be rebuilt without re-embedding.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	captured_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS elements (
	snapshot_id TEXT    NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	idx         INTEGER NOT NULL,
	payload     TEXT    NOT NULL,
	embedding   BLOB,
	PRIMARY KEY (snapshot_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_url ON snapshots(url);
`
