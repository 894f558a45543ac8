package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE landing_zones (
				uuid UUID PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				project_uuid UUID NOT NULL,
				user_name VARCHAR(255) NOT NULL,
				assay_uuid UUID NOT NULL,
				status VARCHAR(64) NOT NULL,
				status_info VARCHAR(1024) NOT NULL DEFAULT '',
				status_info_truncated BOOLEAN NOT NULL DEFAULT FALSE,
				description TEXT NOT NULL DEFAULT '',
				user_message TEXT NOT NULL DEFAULT '',
				configuration VARCHAR(255) NOT NULL DEFAULT '',
				config_data JSONB,
				date_created TIMESTAMP WITH TIME ZONE NOT NULL,
				date_modified TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (title, project_uuid, user_name)
			);

			CREATE INDEX idx_landing_zones_project ON landing_zones(project_uuid);
			CREATE INDEX idx_landing_zones_status ON landing_zones(status);
			CREATE INDEX idx_landing_zones_user ON landing_zones(user_name);

			CREATE TABLE projects (
				uuid UUID PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				member_group VARCHAR(255) NOT NULL DEFAULT '',
				owner_group VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE assays (
				uuid UUID PRIMARY KEY,
				study_uuid UUID NOT NULL,
				title VARCHAR(255) NOT NULL DEFAULT ''
			);

			CREATE TABLE alerts (
				uuid UUID PRIMARY KEY,
				user_name VARCHAR(255) NOT NULL,
				project_uuid UUID NOT NULL,
				zone_uuid UUID NOT NULL,
				level VARCHAR(32) NOT NULL,
				message TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_alerts_user ON alerts(user_name);
		`,
	}
}
