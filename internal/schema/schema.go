// Package schema creates the staging, production, and warehouse schemas.
package schema

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createSchemaSQL = `
CREATE SCHEMA IF NOT EXISTS staging;
CREATE SCHEMA IF NOT EXISTS production;
CREATE SCHEMA IF NOT EXISTS warehouse;

-- Staging: raw synthetic rows, no constraints beyond types
CREATE TABLE IF NOT EXISTS staging.customers (
    customer_id       VARCHAR(20) NOT NULL,
    first_name        VARCHAR(100),
    last_name         VARCHAR(100),
    email             VARCHAR(255),
    phone             VARCHAR(50),
    registration_date DATE,
    city              VARCHAR(100),
    state             VARCHAR(100),
    country           VARCHAR(50),
    age_group         VARCHAR(10),
    loaded_at         TIMESTAMP DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staging.products (
    product_id     VARCHAR(20) NOT NULL,
    product_name   VARCHAR(200),
    category       VARCHAR(100),
    sub_category   VARCHAR(100),
    price          NUMERIC(10,2),
    cost           NUMERIC(10,2),
    brand          VARCHAR(100),
    stock_quantity INTEGER,
    supplier_id    VARCHAR(20),
    loaded_at      TIMESTAMP DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staging.transactions (
    transaction_id   VARCHAR(20) NOT NULL,
    customer_id      VARCHAR(20),
    transaction_date DATE,
    transaction_time TIME,
    payment_method   VARCHAR(50),
    shipping_address TEXT,
    total_amount     NUMERIC(12,2),
    loaded_at        TIMESTAMP DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS staging.transaction_items (
    item_id             VARCHAR(20) NOT NULL,
    transaction_id      VARCHAR(20),
    product_id          VARCHAR(20),
    quantity            INTEGER,
    unit_price          NUMERIC(10,2),
    discount_percentage NUMERIC(5,2),
    line_total          NUMERIC(12,2),
    loaded_at           TIMESTAMP DEFAULT NOW()
);

-- Production: cleansed, referentially valid rows
CREATE TABLE IF NOT EXISTS production.customers (
    customer_id       VARCHAR(20) PRIMARY KEY,
    first_name        VARCHAR(100) NOT NULL,
    last_name         VARCHAR(100) NOT NULL,
    email             VARCHAR(255) NOT NULL,
    phone             VARCHAR(50),
    registration_date DATE,
    city              VARCHAR(100),
    state             VARCHAR(100),
    country           VARCHAR(50),
    age_group         VARCHAR(10)
);

CREATE TABLE IF NOT EXISTS production.products (
    product_id     VARCHAR(20) PRIMARY KEY,
    product_name   VARCHAR(200) NOT NULL,
    category       VARCHAR(100),
    sub_category   VARCHAR(100),
    price          NUMERIC(10,2) NOT NULL,
    cost           NUMERIC(10,2) NOT NULL,
    brand          VARCHAR(100),
    stock_quantity INTEGER,
    supplier_id    VARCHAR(20),
    profit_margin  NUMERIC(6,2),
    price_category VARCHAR(20)
);

CREATE TABLE IF NOT EXISTS production.transactions (
    transaction_id   VARCHAR(20) PRIMARY KEY,
    customer_id      VARCHAR(20) NOT NULL REFERENCES production.customers(customer_id),
    transaction_date DATE NOT NULL,
    transaction_time TIME,
    payment_method   VARCHAR(50) NOT NULL,
    shipping_address TEXT,
    total_amount     NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS production.transaction_items (
    item_id             VARCHAR(20) PRIMARY KEY,
    transaction_id      VARCHAR(20) NOT NULL REFERENCES production.transactions(transaction_id),
    product_id          VARCHAR(20) NOT NULL REFERENCES production.products(product_id),
    quantity            INTEGER NOT NULL,
    unit_price          NUMERIC(10,2) NOT NULL,
    discount_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
    line_total          NUMERIC(12,2) NOT NULL
);

-- Warehouse: star schema
CREATE TABLE IF NOT EXISTS warehouse.dim_date (
    date_key     INTEGER PRIMARY KEY,
    full_date    DATE NOT NULL UNIQUE,
    year         INTEGER NOT NULL,
    quarter      INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    day          INTEGER NOT NULL,
    month_name   VARCHAR(10) NOT NULL,
    weekday_name VARCHAR(10) NOT NULL,
    iso_week     INTEGER NOT NULL,
    is_weekend   BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.dim_payment_method (
    payment_method_key SERIAL PRIMARY KEY,
    method_name        VARCHAR(50) NOT NULL UNIQUE,
    method_type        VARCHAR(20) NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.dim_customer (
    customer_key     BIGSERIAL PRIMARY KEY,
    customer_id      VARCHAR(20) NOT NULL,
    first_name       VARCHAR(100) NOT NULL,
    last_name        VARCHAR(100) NOT NULL,
    email            VARCHAR(255) NOT NULL,
    phone            VARCHAR(50),
    city             VARCHAR(100),
    state            VARCHAR(100),
    country          VARCHAR(50),
    age_group        VARCHAR(10),
    customer_segment VARCHAR(50) NOT NULL,
    effective_date   DATE NOT NULL,
    end_date         DATE,
    is_current       BOOLEAN NOT NULL DEFAULT TRUE
);

-- At most one current version per business key
CREATE UNIQUE INDEX IF NOT EXISTS uq_dim_customer_current
    ON warehouse.dim_customer(customer_id) WHERE is_current;
CREATE INDEX IF NOT EXISTS idx_dim_customer_id ON warehouse.dim_customer(customer_id);

CREATE TABLE IF NOT EXISTS warehouse.dim_product (
    product_key    BIGSERIAL PRIMARY KEY,
    product_id     VARCHAR(20) NOT NULL,
    product_name   VARCHAR(200) NOT NULL,
    category       VARCHAR(100),
    sub_category   VARCHAR(100),
    brand          VARCHAR(100),
    price          NUMERIC(10,2) NOT NULL,
    cost           NUMERIC(10,2) NOT NULL,
    price_range    VARCHAR(20) NOT NULL,
    effective_date DATE NOT NULL,
    end_date       DATE,
    is_current     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_dim_product_current
    ON warehouse.dim_product(product_id) WHERE is_current;
CREATE INDEX IF NOT EXISTS idx_dim_product_id ON warehouse.dim_product(product_id);

CREATE TABLE IF NOT EXISTS warehouse.fact_sales (
    sales_key           BIGSERIAL PRIMARY KEY,
    transaction_id      VARCHAR(20) NOT NULL,
    item_id             VARCHAR(20) NOT NULL,
    date_key            INTEGER NOT NULL REFERENCES warehouse.dim_date(date_key),
    customer_key        BIGINT NOT NULL REFERENCES warehouse.dim_customer(customer_key),
    product_key         BIGINT NOT NULL REFERENCES warehouse.dim_product(product_key),
    payment_method_key  INTEGER NOT NULL REFERENCES warehouse.dim_payment_method(payment_method_key),
    quantity            INTEGER NOT NULL,
    unit_price          NUMERIC(10,2) NOT NULL,
    discount_percentage NUMERIC(5,2) NOT NULL,
    discount_amount     NUMERIC(12,2) NOT NULL,
    line_total          NUMERIC(12,2) NOT NULL,
    profit              NUMERIC(12,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON warehouse.fact_sales(date_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON warehouse.fact_sales(customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON warehouse.fact_sales(product_key);

CREATE TABLE IF NOT EXISTS warehouse.agg_daily_sales (
    date_key          INTEGER PRIMARY KEY,
    transaction_count BIGINT NOT NULL,
    total_revenue     NUMERIC(14,2) NOT NULL,
    total_profit      NUMERIC(14,2) NOT NULL,
    unique_customers  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.agg_product_performance (
    product_key    BIGINT PRIMARY KEY,
    total_quantity BIGINT NOT NULL,
    total_revenue  NUMERIC(14,2) NOT NULL,
    total_profit   NUMERIC(14,2) NOT NULL,
    avg_discount   NUMERIC(12,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS warehouse.agg_customer_metrics (
    customer_key           BIGINT PRIMARY KEY,
    transaction_count      BIGINT NOT NULL,
    total_revenue          NUMERIC(14,2) NOT NULL,
    avg_order_value        NUMERIC(12,2) NOT NULL,
    last_purchase_date_key INTEGER NOT NULL
);
`

const dropSchemaSQL = `
DROP SCHEMA IF EXISTS warehouse CASCADE;
DROP SCHEMA IF EXISTS production CASCADE;
DROP SCHEMA IF EXISTS staging CASCADE;
`

// Create creates the three pipeline schemas and all tables.
func Create(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// Drop drops the three pipeline schemas.
func Drop(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
