package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/port"
)

// Setting keys in the system_settings table.
const (
	settingRiskDays       = "DEFAULT_RISK_DAYS"
	settingRemedyDays     = "DEFAULT_REMEDY_DAYS"
	settingGraceEnabled   = "LATE_FEE_GRACE_ENABLED"
	settingGraceDays      = "LATE_FEE_GRACE_DAYS"
	settingAlertThreshold = "LATE_FEE_ALERT_THRESHOLD"
)

// SettingsRepo implements port.SettingsRepository on the key/value
// system_settings table.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) EngineSettings(ctx context.Context) (port.EngineSettings, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value FROM system_settings WHERE key = ANY($1)`,
		[]string{settingRiskDays, settingRemedyDays, settingGraceEnabled, settingGraceDays, settingAlertThreshold})
	if err != nil {
		return port.EngineSettings{}, fmt.Errorf("load engine settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return port.EngineSettings{}, fmt.Errorf("load engine settings: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return port.EngineSettings{}, fmt.Errorf("load engine settings: %w", err)
	}

	var settings port.EngineSettings
	if settings.Risk.RiskDays, err = intSetting(values, settingRiskDays); err != nil {
		return port.EngineSettings{}, err
	}
	if settings.Risk.RemedyDays, err = intSetting(values, settingRemedyDays); err != nil {
		return port.EngineSettings{}, err
	}
	if settings.GraceEnabled, err = boolSetting(values, settingGraceEnabled); err != nil {
		return port.EngineSettings{}, err
	}
	if settings.GraceDays, err = intSetting(values, settingGraceDays); err != nil {
		return port.EngineSettings{}, err
	}
	if settings.AlertThreshold, err = decimalSetting(values, settingAlertThreshold); err != nil {
		return port.EngineSettings{}, err
	}
	if err := settings.Risk.Validate(); err != nil {
		return port.EngineSettings{}, fmt.Errorf("engine settings: %w", err)
	}
	return settings, nil
}

func intSetting(values map[string]string, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("setting %s is missing", key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return v, nil
}

func boolSetting(values map[string]string, key string) (bool, error) {
	raw, ok := values[key]
	if !ok {
		return false, fmt.Errorf("setting %s is missing", key)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}
	return v, nil
}

func decimalSetting(values map[string]string, key string) (decimal.Decimal, error) {
	raw, ok := values[key]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("setting %s is missing", key)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("setting %s: %w", key, err)
	}
	return v, nil
}
