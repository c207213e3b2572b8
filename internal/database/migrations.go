package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS workspaces (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		max_reschedules INTEGER NOT NULL DEFAULT 2,
		reschedule_cutoff_hours INTEGER NOT NULL DEFAULT 24,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`DO $$ BEGIN
		CREATE TYPE app_role AS ENUM ('host', 'guest', 'editor');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS workspace_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role app_role NOT NULL DEFAULT 'host',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(workspace_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS guest_profiles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID UNIQUE REFERENCES users(id) ON DELETE SET NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		bio TEXT,
		topics TEXT[] NOT NULL DEFAULT '{}',
		website_url VARCHAR(500),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`DO $$ BEGIN
		CREATE TYPE collaboration_status AS ENUM (
			'invited', 'intake_completed', 'scheduled', 'recorded',
			'editing', 'ready', 'completed', 'cancelled'
		);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS collaborations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
		host_id UUID NOT NULL REFERENCES users(id),
		editor_id UUID REFERENCES users(id) ON DELETE SET NULL,
		guest_profile_id UUID REFERENCES guest_profiles(id) ON DELETE SET NULL,
		guest_email VARCHAR(255) NOT NULL,
		title VARCHAR(255) NOT NULL,
		status collaboration_status NOT NULL DEFAULT 'invited',
		scheduled_date TIMESTAMP WITH TIME ZONE,
		prep_date TIMESTAMP WITH TIME ZONE,
		recorded_date TIMESTAMP WITH TIME ZONE,
		delivery_date TIMESTAMP WITH TIME ZONE,
		reschedule_count INTEGER NOT NULL DEFAULT 0,
		invite_token VARCHAR(64) UNIQUE NOT NULL,
		notes TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS status_history (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		collaboration_id UUID NOT NULL REFERENCES collaborations(id) ON DELETE CASCADE,
		old_status collaboration_status,
		new_status collaboration_status NOT NULL,
		changed_by UUID REFERENCES users(id) ON DELETE SET NULL,
		notes TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// One row per delivered email; the sweep reads it back as its dedup marker.
	`CREATE TABLE IF NOT EXISTS notification_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		collaboration_id UUID NOT NULL REFERENCES collaborations(id) ON DELETE CASCADE,
		kind VARCHAR(32) NOT NULL,
		variant VARCHAR(32) NOT NULL DEFAULT '',
		recipient VARCHAR(255) NOT NULL,
		sent_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_workspace_members_user_id ON workspace_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborations_workspace_id ON collaborations(workspace_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborations_host_id ON collaborations(host_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborations_editor_id ON collaborations(editor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborations_status_scheduled ON collaborations(status, scheduled_date)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborations_status_updated ON collaborations(status, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_status_history_collaboration_id ON status_history(collaboration_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_notification_log_lookup ON notification_log(collaboration_id, kind, variant, sent_at DESC)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
