package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS month_fetches (
    source               TEXT NOT NULL,
    month                TEXT NOT NULL,
    statuses             TEXT NOT NULL,
    lines                INTEGER NOT NULL,
    kept                 INTEGER NOT NULL,
    rejected             INTEGER NOT NULL,
    malformed            INTEGER NOT NULL,
    bytes                INTEGER NOT NULL,
    fetched_at           TEXT NOT NULL,
    PRIMARY KEY (source, month, statuses)
);

CREATE TABLE IF NOT EXISTS month_aggregates (
    source               TEXT NOT NULL,
    month                TEXT NOT NULL,
    statuses             TEXT NOT NULL,
    sku                  TEXT NOT NULL,
    name                 TEXT NOT NULL,
    price                TEXT NOT NULL,
    count                INTEGER NOT NULL,
    PRIMARY KEY (source, month, statuses, sku),
    FOREIGN KEY (source, month, statuses)
        REFERENCES month_fetches(source, month, statuses) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    source               TEXT NOT NULL,
    months               TEXT NOT NULL,
    base_month           TEXT NOT NULL,
    base_total           TEXT NOT NULL,
    basket_size          INTEGER NOT NULL,
    accumulated          REAL NOT NULL,
    computed_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_points (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    idx                  INTEGER NOT NULL,
    month                TEXT NOT NULL,
    total                TEXT NOT NULL,
    ipc                  REAL NOT NULL,
    inflation            REAL NOT NULL,
    accumulated          REAL NOT NULL,
    PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_computed ON runs(computed_at);
`
