package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Timestamps are Unix seconds; money is stored as decimal text.
// IMPORTANT: parent tables must be created before the tables referencing them.
const schema = `
CREATE TABLE IF NOT EXISTS books (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    isbn TEXT UNIQUE,
    genre TEXT NOT NULL DEFAULT '',
    publication_year INTEGER,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS book_copies (
    id TEXT PRIMARY KEY,
    book_id TEXT NOT NULL,
    copy_number INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'available'
        CHECK (status IN ('available', 'borrowed', 'maintenance')),
    condition TEXT NOT NULL DEFAULT 'good'
        CHECK (condition IN ('excellent', 'good', 'fair', 'poor')),
    created_at INTEGER NOT NULL,
    UNIQUE (book_id, copy_number),
    FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active'
        CHECK (status IN ('active', 'suspended', 'expired')),
    max_books INTEGER NOT NULL DEFAULT 3 CHECK (max_books BETWEEN 1 AND 10),
    member_since INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS borrowing_transactions (
    id TEXT PRIMARY KEY,
    member_id TEXT NOT NULL,
    book_copy_id TEXT NOT NULL,
    borrowed_date INTEGER NOT NULL,
    due_date INTEGER NOT NULL,
    returned_date INTEGER,
    renewal_count INTEGER NOT NULL DEFAULT 0 CHECK (renewal_count BETWEEN 0 AND 3),
    status TEXT NOT NULL DEFAULT 'active'
        CHECK (status IN ('active', 'returned', 'overdue', 'lost')),
    notes TEXT NOT NULL DEFAULT '',
    CHECK (borrowed_date <= due_date),
    CHECK (returned_date IS NULL OR returned_date >= borrowed_date),
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE,
    FOREIGN KEY (book_copy_id) REFERENCES book_copies(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS fines (
    id TEXT PRIMARY KEY,
    borrowing_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    fine_type TEXT NOT NULL
        CHECK (fine_type IN ('overdue', 'lost', 'damage', 'late_return')),
    amount TEXT NOT NULL,
    assessed_date INTEGER NOT NULL,
    paid_date INTEGER,
    status TEXT NOT NULL DEFAULT 'unpaid'
        CHECK (status IN ('unpaid', 'paid', 'waived', 'disputed')),
    notes TEXT NOT NULL DEFAULT '',
    CHECK (paid_date IS NULL OR paid_date >= assessed_date),
    FOREIGN KEY (borrowing_id) REFERENCES borrowing_transactions(id) ON DELETE CASCADE,
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS reservations (
    id TEXT PRIMARY KEY,
    book_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    reserved_at INTEGER NOT NULL,
    fulfilled_at INTEGER,
    cancelled_at INTEGER,
    FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE,
    FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS librarians (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- A copy can be held by at most one open loan.
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_open_copy
    ON borrowing_transactions(book_copy_id) WHERE status IN ('active', 'overdue');

-- A member can hold at most one pending reservation per book.
CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_pending
    ON reservations(book_id, member_id) WHERE fulfilled_at IS NULL AND cancelled_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_copies_book_id ON book_copies(book_id);
CREATE INDEX IF NOT EXISTS idx_transactions_member_id ON borrowing_transactions(member_id);
CREATE INDEX IF NOT EXISTS idx_transactions_status_due ON borrowing_transactions(status, due_date);
CREATE INDEX IF NOT EXISTS idx_transactions_borrowed_date ON borrowing_transactions(borrowed_date);
CREATE INDEX IF NOT EXISTS idx_fines_member_id ON fines(member_id);
CREATE INDEX IF NOT EXISTS idx_fines_borrowing_id ON fines(borrowing_id);
CREATE INDEX IF NOT EXISTS idx_reservations_book_id ON reservations(book_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
