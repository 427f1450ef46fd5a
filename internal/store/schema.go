package store

const Schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_ref TEXT NOT NULL DEFAULT '',
	host TEXT NOT NULL,
	username TEXT NOT NULL,
	password TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	synced_at DATETIME
);

CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	domain TEXT NOT NULL CHECK (domain IN ('channel', 'movie', 'series')),
	provider_category_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	subscription_id INTEGER NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE
);

-- Provider category ids are only unique within one subscription and domain
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_natural ON categories(provider_category_id, subscription_id, domain);

CREATE TABLE IF NOT EXISTS channels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_item_id INTEGER NOT NULL CHECK (provider_item_id > 0),
	category_id INTEGER NOT NULL,
	subscription_id INTEGER NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
	category_ref INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name TEXT NOT NULL CHECK (name <> ''),
	stream_type TEXT NOT NULL DEFAULT '',
	stream_icon TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	is_favorite BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_channels_natural ON channels(provider_item_id, category_id, subscription_id);
CREATE INDEX IF NOT EXISTS idx_channels_subscription ON channels(subscription_id, category_id);

CREATE TABLE IF NOT EXISTS movies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_item_id INTEGER NOT NULL CHECK (provider_item_id > 0),
	category_id INTEGER NOT NULL,
	subscription_id INTEGER NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
	category_ref INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name TEXT NOT NULL CHECK (name <> ''),
	stream_type TEXT NOT NULL DEFAULT '',
	stream_icon TEXT NOT NULL DEFAULT '',
	rating TEXT NOT NULL DEFAULT '0',
	added TEXT NOT NULL DEFAULT '',
	container_extension TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_movies_natural ON movies(provider_item_id, category_id, subscription_id);
CREATE INDEX IF NOT EXISTS idx_movies_subscription ON movies(subscription_id, category_id);

CREATE TABLE IF NOT EXISTS series (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_item_id INTEGER NOT NULL CHECK (provider_item_id > 0),
	category_id INTEGER NOT NULL,
	subscription_id INTEGER NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
	category_ref INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
	name TEXT NOT NULL CHECK (name <> ''),
	cover TEXT NOT NULL DEFAULT '',
	plot TEXT NOT NULL DEFAULT '',
	cast TEXT NOT NULL DEFAULT '',
	director TEXT NOT NULL DEFAULT '',
	genre TEXT NOT NULL DEFAULT '',
	release_date TEXT NOT NULL DEFAULT '',
	last_modified TEXT NOT NULL DEFAULT '',
	rating TEXT NOT NULL DEFAULT '0',
	backdrop_path TEXT NOT NULL DEFAULT '',
	youtube_trailer TEXT NOT NULL DEFAULT '',
	episode_run_time TEXT NOT NULL DEFAULT '',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_series_natural ON series(provider_item_id, category_id, subscription_id);
CREATE INDEX IF NOT EXISTS idx_series_subscription ON series(subscription_id, category_id);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	subscription_id INTEGER NOT NULL REFERENCES subscriptions(id) ON DELETE CASCADE,
	status TEXT NOT NULL,
	stage TEXT NOT NULL DEFAULT '',
	progress REAL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_subscription ON sync_runs(subscription_id, created_at);
`
