package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS corpus_run SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS status ON corpus_run TYPE string;
    DEFINE FIELD IF NOT EXISTS organization ON corpus_run TYPE string;
    DEFINE FIELD IF NOT EXISTS listing_url ON corpus_run TYPE string;
    DEFINE FIELD IF NOT EXISTS stages ON corpus_run TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS harvested ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS enriched ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS documents ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS validation ON corpus_run TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS errors ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS warnings ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS uploaded ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS upload_failed ON corpus_run TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS linked ON corpus_run TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS error ON corpus_run TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS started_at ON corpus_run TYPE datetime;
    DEFINE FIELD IF NOT EXISTS completed_at ON corpus_run TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS corpus_run_started ON corpus_run FIELDS started_at;
`
