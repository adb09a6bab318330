package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de un run de backtest.
type Config struct {
	Backtest  BacktestConfig  `yaml:"backtest"`
	Execution ExecutionConfig `yaml:"execution"`
	Data      DataConfig      `yaml:"data"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// BacktestConfig controla la estrategia y el capital del run.
type BacktestConfig struct {
	Strategy    string         `yaml:"strategy"`
	Params      map[string]any `yaml:"params"`
	Universe    []string       `yaml:"universe"`
	InitialCash float64        `yaml:"initial_cash"`
	RecordBars  bool           `yaml:"record_bars"`
	RiskFree    *float64       `yaml:"risk_free_rate"` // tasa anual para Sharpe; ausente = 2%
}

// ExecutionConfig controla slippage, comisiones y el broker.
type ExecutionConfig struct {
	SlippageBps  float64 `yaml:"slippage_bps"`
	FeePct       float64 `yaml:"fee_pct"`
	Realistic    bool    `yaml:"realistic"`     // half-spread + límite por volumen
	SpreadBps    float64 `yaml:"spread_bps"`    // solo con realistic
	MaxFillPct   float64 `yaml:"max_fill_pct"`  // fracción del volumen del bar
	PaperDelay   int     `yaml:"paper_delay"`   // bars de retraso; 0 = broker simulado
	UsePaperMode bool    `yaml:"use_paper_mode"`
}

// DataConfig apunta al archivo de bars.
type DataConfig struct {
	CSVPath string `yaml:"csv_path"`
	Symbol  string `yaml:"symbol"` // símbolo por defecto si el CSV no trae columna
}

// StorageConfig controla dónde se persiste la pista de auditoría.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:", o vacío para desactivar
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve una configuración usable sin archivo YAML.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BARSIM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backtest.Strategy == "" {
		cfg.Backtest.Strategy = "sma_cross"
	}
	if cfg.Backtest.InitialCash <= 0 {
		cfg.Backtest.InitialCash = 10_000
	}
	if cfg.Backtest.RiskFree == nil {
		// Puntero para distinguir "sin configurar" de una tasa cero explícita
		rf := 0.02
		cfg.Backtest.RiskFree = &rf
	}
	if cfg.Execution.MaxFillPct <= 0 {
		cfg.Execution.MaxFillPct = 0.1
	}
	if cfg.Execution.PaperDelay <= 0 && cfg.Execution.UsePaperMode {
		cfg.Execution.PaperDelay = 1
	}
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "BTCUSDT"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
