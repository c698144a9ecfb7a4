package repository

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  condition TEXT NOT NULL CHECK (condition IN ('new','like_new','excellent','good','fair','poor','for_parts')),
  category TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '[]',
  suggested_price REAL NOT NULL DEFAULT 0 CHECK (suggested_price >= 0),
  current_bid REAL NOT NULL DEFAULT 0,
  reserve_price REAL,
  bid_count INTEGER NOT NULL DEFAULT 0,
  confidence_score REAL NOT NULL DEFAULT 0.7 CHECK (confidence_score >= 0 AND confidence_score <= 1),
  image_url TEXT NOT NULL DEFAULT '',
  auction_status TEXT NOT NULL DEFAULT 'open' CHECK (auction_status IN ('open','closed')),
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(LOWER(category));
CREATE INDEX IF NOT EXISTS idx_products_brand      ON products(LOWER(brand));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

CREATE TABLE IF NOT EXISTS bids(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  bid_id TEXT NOT NULL UNIQUE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  amount REAL NOT NULL CHECK (amount > 0),
  status TEXT NOT NULL CHECK (status IN ('active','winning','outbid','won','lost')),
  is_auto_bid INTEGER NOT NULL DEFAULT 0,
  max_auto_bid REAL,
  created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bids_product        ON bids(product_id);
CREATE INDEX IF NOT EXISTS idx_bids_product_status ON bids(product_id, status);
CREATE INDEX IF NOT EXISTS idx_bids_user           ON bids(user_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  condition TEXT NOT NULL CHECK (condition IN ('new','like_new','excellent','good','fair','poor','for_parts')),
  category TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  model TEXT NOT NULL DEFAULT '',
  tags TEXT NOT NULL DEFAULT '[]',
  suggested_price DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (suggested_price >= 0),
  current_bid DOUBLE PRECISION NOT NULL DEFAULT 0,
  reserve_price DOUBLE PRECISION,
  bid_count BIGINT NOT NULL DEFAULT 0,
  confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0.7 CHECK (confidence_score >= 0 AND confidence_score <= 1),
  image_url TEXT NOT NULL DEFAULT '',
  auction_status TEXT NOT NULL DEFAULT 'open' CHECK (auction_status IN ('open','closed')),
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(LOWER(category));
CREATE INDEX IF NOT EXISTS idx_products_brand      ON products(LOWER(brand));
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

CREATE TABLE IF NOT EXISTS bids(
  id BIGSERIAL PRIMARY KEY,
  bid_id TEXT NOT NULL UNIQUE,
  product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
  status TEXT NOT NULL CHECK (status IN ('active','winning','outbid','won','lost')),
  is_auto_bid BOOLEAN NOT NULL DEFAULT FALSE,
  max_auto_bid DOUBLE PRECISION,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bids_product        ON bids(product_id);
CREATE INDEX IF NOT EXISTS idx_bids_product_status ON bids(product_id, status);
CREATE INDEX IF NOT EXISTS idx_bids_user           ON bids(user_id);
`
