package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gorpher/gone"
	"github.com/rs/zerolog/log"
)

// PathScanTimeout bounds the walk over PATH in ScanFile.
var PathScanTimeout = time.Second * 5

// ScanFile 查找可执行文件或配置文件 filePath命令行参数指定的路径， defaultName默认文件名，envName环境变量名
// 扫描顺序 1.命令行参数 2.环境变量 3.工作路径 4.当前程序同级目录 5.PATH 目录
func ScanFile(filePath, defaultName, envName string) (string, error) {
	if filePath != "" && FileExist(filePath) {
		return filePath, nil
	}
	if envName != "" {
		if f := os.Getenv(envName); f != "" && FileExist(f) {
			return f, nil
		}
	}
	names := candidateNames(defaultName)
	if pwd, err := os.Getwd(); err == nil {
		if f := firstExisting(filepath.Clean(pwd), names); f != "" {
			return f, nil
		}
	}
	if location, err := os.Executable(); err == nil {
		if f := firstExisting(filepath.Dir(location), names); f != "" {
			return f, nil
		}
	}

	found := make(chan string, 1)
	paths := filepath.SplitList(os.Getenv("PATH"))
	gone.AfterStopFunc(PathScanTimeout, func(c <-chan struct{}) {
		for _, root := range paths {
			select {
			case <-c:
				log.Warn().Str("file", defaultName).Msg("PATH scan timed out")
				return
			default:
			}
			if root == "" || !gone.FileIsDir(root) {
				continue
			}
			if f := firstExisting(root, names); f != "" {
				found <- f
				return
			}
		}
	})
	select {
	case f := <-found:
		return f, nil
	default:
	}
	return "", fmt.Errorf("[%s] file does not exist", defaultName)
}

// candidateNames adds the executable suffix on windows.
func candidateNames(name string) []string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return []string{name + ".exe", name}
	}
	return []string{name}
}

func firstExisting(dir string, names []string) string {
	for _, name := range names {
		f := filepath.Join(dir, name)
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			return f
		}
	}
	return ""
}

// FileExist 判断路径是否为已存在的普通文件，目录返回 false
func FileExist(file string) bool {
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
