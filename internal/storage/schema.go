package storage

const schema = `
-- The 'collections' table holds one JSON document per record collection.
-- A write replaces the whole document, mirroring the file backend.
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`
