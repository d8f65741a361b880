package sqlstore

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS estudos (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS produtos (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		estudo_id    INTEGER NOT NULL,
		nome         TEXT NOT NULL,
		tipo_produto TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS localizacao (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tipo_acao (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tipo_produto (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS movimentacoes (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		data           TEXT NOT NULL,
		tipo_transacao TEXT NOT NULL,
		estudo_id      INTEGER NOT NULL,
		produto_id     INTEGER NOT NULL,
		tipo_produto   TEXT,
		quantidade     INTEGER NOT NULL CHECK (quantidade > 0),
		validade       TEXT,
		lote           TEXT,
		nota           TEXT,
		tipo_acao      TEXT,
		consideracoes  TEXT,
		responsavel    TEXT NOT NULL,
		localizacao    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movimentacoes_chave
		ON movimentacoes (estudo_id, produto_id, validade, lote)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'visualizador',
		is_active     INTEGER NOT NULL DEFAULT 1
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS estudos (
		id   BIGSERIAL PRIMARY KEY,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS produtos (
		id           BIGSERIAL PRIMARY KEY,
		estudo_id    BIGINT NOT NULL,
		nome         TEXT NOT NULL,
		tipo_produto TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS localizacao (
		id   BIGSERIAL PRIMARY KEY,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tipo_acao (
		id   BIGSERIAL PRIMARY KEY,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tipo_produto (
		id   BIGSERIAL PRIMARY KEY,
		nome TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS movimentacoes (
		id             BIGSERIAL PRIMARY KEY,
		data           DATE NOT NULL,
		tipo_transacao TEXT NOT NULL,
		estudo_id      BIGINT NOT NULL,
		produto_id     BIGINT NOT NULL,
		tipo_produto   TEXT,
		quantidade     INTEGER NOT NULL CHECK (quantidade > 0),
		validade       DATE,
		lote           TEXT,
		nota           TEXT,
		tipo_acao      TEXT,
		consideracoes  TEXT,
		responsavel    TEXT NOT NULL,
		localizacao    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movimentacoes_chave
		ON movimentacoes (estudo_id, produto_id, validade, lote)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'visualizador',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE
	)`,
}
