package ledger

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per accepted or rejected submission.
CREATE TABLE IF NOT EXISTS submissions (
    submission_id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT,
    name TEXT NOT NULL,
    comment TEXT,
    query TEXT NOT NULL,
    expiration TEXT,
    status_code INTEGER,
    response TEXT,
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submissions_name ON submissions(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_submissions_job ON submissions(job_id);

-- One row per completed artifact download.
CREATE TABLE IF NOT EXISTS downloads (
    download_id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id TEXT NOT NULL,
    name TEXT,
    url TEXT NOT NULL,
    path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    downloaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_downloads_job ON downloads(job_id);
`
