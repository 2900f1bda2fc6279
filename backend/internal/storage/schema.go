package storage

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS benefits (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS job_listings (
		id BIGSERIAL PRIMARY KEY,
		job_title TEXT NOT NULL,
		description TEXT NOT NULL,
		experience_level TEXT NOT NULL,
		salary_from BIGINT NOT NULL,
		salary_to BIGINT NOT NULL,
		work_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		deadline DATE NOT NULL,
		location_id BIGINT NOT NULL REFERENCES locations(id),
		employer_id UUID NOT NULL,
		number_of_applications BIGINT NOT NULL DEFAULT 0 CHECK (number_of_applications >= 0),
		slug TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (salary_to > salary_from)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_listings_status ON job_listings(status)`,
	`CREATE TABLE IF NOT EXISTS employer_jobs (
		employer_id UUID NOT NULL,
		job_listing_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (employer_id, job_listing_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_skills (
		job_listing_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		skill_id BIGINT NOT NULL REFERENCES skills(id),
		PRIMARY KEY (job_listing_id, skill_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_benefits (
		job_listing_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		benefit_id BIGINT NOT NULL REFERENCES benefits(id),
		PRIMARY KEY (job_listing_id, benefit_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_category (
		job_listing_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		category_id BIGINT NOT NULL REFERENCES categories(id),
		PRIMARY KEY (job_listing_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		job_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('cv', 'form')),
		job_id BIGINT NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		candidate_id UUID NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_candidate ON applications(candidate_id)`,
	`CREATE TABLE IF NOT EXISTS cv_applications (
		application_id BIGINT PRIMARY KEY REFERENCES applications(id) ON DELETE CASCADE,
		cv TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS form_applications (
		application_id BIGINT PRIMARY KEY REFERENCES applications(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL
	)`,
}

// SQLite: DATE/TIMESTAMP в объявлении колонки нужны драйверу для разбора time.Time
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS benefits (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS job_listings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_title TEXT NOT NULL,
		description TEXT NOT NULL,
		experience_level TEXT NOT NULL,
		salary_from INTEGER NOT NULL,
		salary_to INTEGER NOT NULL,
		work_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		deadline DATE NOT NULL,
		location_id INTEGER NOT NULL REFERENCES locations(id),
		employer_id TEXT NOT NULL,
		number_of_applications INTEGER NOT NULL DEFAULT 0 CHECK (number_of_applications >= 0),
		slug TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CHECK (salary_to > salary_from)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_listings_status ON job_listings(status)`,
	`CREATE TABLE IF NOT EXISTS employer_jobs (
		employer_id TEXT NOT NULL,
		job_listing_id INTEGER NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (employer_id, job_listing_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_skills (
		job_listing_id INTEGER NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		skill_id INTEGER NOT NULL REFERENCES skills(id),
		PRIMARY KEY (job_listing_id, skill_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_benefits (
		job_listing_id INTEGER NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		benefit_id INTEGER NOT NULL REFERENCES benefits(id),
		PRIMARY KEY (job_listing_id, benefit_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_category (
		job_listing_id INTEGER NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		PRIMARY KEY (job_listing_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL CHECK (type IN ('cv', 'form')),
		job_id INTEGER NOT NULL REFERENCES job_listings(id) ON DELETE CASCADE,
		candidate_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_candidate ON applications(candidate_id)`,
	`CREATE TABLE IF NOT EXISTS cv_applications (
		application_id INTEGER PRIMARY KEY REFERENCES applications(id) ON DELETE CASCADE,
		cv TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS form_applications (
		application_id INTEGER PRIMARY KEY REFERENCES applications(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL
	)`,
}
