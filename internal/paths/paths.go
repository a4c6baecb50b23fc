package paths

import (
	"os"
	"path/filepath"
)

// AppName は設定ディレクトリ名と設定ファイル名のベース
const AppName = "steward"

// configExtensions は探索する設定ファイルの拡張子（優先順）
var configExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// PathManager はstewardの設定ファイルの場所を管理するインターフェース
type PathManager interface {
	ConfigDirs() []string
	ConfigFile() (string, bool)
}

type pathManager struct {
	workDir   string
	configDir string
	homeDir   string
}

// NewPathManager creates a PathManager rooted at workDir. The user config
// directory comes from XDG_CONFIG_HOME, falling back to ~/.config.
func NewPathManager(workDir string) PathManager {
	home, _ := os.UserHomeDir()
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" && home != "" {
		configDir = filepath.Join(home, ".config")
	}
	return &pathManager{
		workDir:   workDir,
		configDir: configDir,
		homeDir:   home,
	}
}

// ConfigDirs は設定ファイルを探すディレクトリを優先順に返す
func (p *pathManager) ConfigDirs() []string {
	var dirs []string
	if p.workDir != "" {
		dirs = append(dirs, p.workDir)
	}
	if p.configDir != "" {
		dirs = append(dirs, filepath.Join(p.configDir, AppName))
	}
	if p.homeDir != "" {
		dirs = append(dirs, p.homeDir)
	}
	return dirs
}

// ConfigFile returns the first existing steward.{yaml,yml,json,toml} in
// ConfigDirs order. The file in the home directory is the dotted
// ~/.steward.yaml form.
func (p *pathManager) ConfigFile() (string, bool) {
	for _, dir := range p.ConfigDirs() {
		base := AppName
		if dir == p.homeDir && dir != p.workDir {
			base = "." + AppName
		}
		for _, ext := range configExtensions {
			candidate := filepath.Join(dir, base+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}
