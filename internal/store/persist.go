package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teamshift-dev/workshift-manager/backend/internal/domain"
)

// loadCollection 从文件中读取一个集合
// 返回 false 表示文件损坏，调用方应该用空集合覆盖并立即持久化
func (s *Store) loadCollection(file string, v any) bool {
	data, err := os.ReadFile(s.path(file))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("读取集合文件失败，使用空集合", "file", file, "error", err)
		}
		return err == nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		slog.Warn("集合文件损坏，重置为空集合", "file", file, "error", err)
		return false
	}

	return true
}

// saveCollection 持久化一个集合
// 先把旧文件复制到备份目录并淘汰过旧的备份，再用临时文件加重命名的方式写入，
// 防止写入途中崩溃导致文件被截断
func (s *Store) saveCollection(file string, v any) error {
	target := s.path(file)

	if _, err := os.Stat(target); err == nil {
		if err := s.backupFile(file); err != nil {
			return &domain.PersistenceError{Op: "backup " + file, Err: err}
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "marshal " + file, Err: err}
	}

	tmp, err := os.CreateTemp(s.dataDir, file+".tmp-*")
	if err != nil {
		return &domain.PersistenceError{Op: "write " + file, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write " + file, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "write " + file, Err: err}
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return &domain.PersistenceError{Op: "rename " + file, Err: err}
	}

	return nil
}

// backupFile 把当前文件复制到备份目录，文件名附带时间戳，
// 并按修改时间只保留每个集合最新的 BackupRetention 个备份
func (s *Store) backupFile(file string) error {
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	ext := filepath.Ext(file)

	data, err := os.ReadFile(s.path(file))
	if err != nil {
		return err
	}

	backupName := stem + "_" + s.now().Format("20060102150405.000000000") + ext
	backupPath := filepath.Join(s.dataDir, backupDirName, backupName)
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return err
	}

	return s.pruneBackups(stem, ext)
}

func (s *Store) pruneBackups(stem string, ext string) error {
	dir := filepath.Join(s.dataDir, backupDirName)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type backup struct {
		path    string
		modTime int64
	}
	var backups []backup

	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasPrefix(name, stem+"_") || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path:    filepath.Join(dir, name),
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(backups) <= BackupRetention {
		return nil
	}

	// 按修改时间从新到旧排序，淘汰超出保留数量的旧备份
	// 修改时间相同时按文件名中的时间戳比较
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime != backups[j].modTime {
			return backups[i].modTime > backups[j].modTime
		}
		return backups[i].path > backups[j].path
	})

	for _, b := range backups[BackupRetention:] {
		if err := os.Remove(b.path); err != nil {
			return err
		}
	}

	return nil
}
