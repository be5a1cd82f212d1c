package storage

import "os"

func filepathStat(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return info.Mode().Perm().String(), nil
}
