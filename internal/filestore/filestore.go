package filestore

import "io"

// StoredFile — стабильная ссылка и метаданные принятого файла
type StoredFile struct {
	Ref  string `json:"ref"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// FileStore принимает бинарный блоб и возвращает ссылку, по которой его
// можно отдать обратно. Содержимое для ядра непрозрачно.
type FileStore interface {
	// Save идемпотентен по содержимому: повторная загрузка того же
	// блоба возвращает ту же ссылку.
	Save(r io.Reader) (*StoredFile, error)

	// Open отдаёт содержимое по ссылке.
	Open(ref string) (io.ReadCloser, error)
}
