package discovery

import (
	"fmt"
	"sort"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for info.
func EncodeTXT(info *Info) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyID:  info.ID,
		TXTKeyAPI: info.APIPath,
	}
	if txt[TXTKeyAPI] == "" {
		txt[TXTKeyAPI] = DefaultAPIPath
	}
	if info.Model != "" {
		txt[TXTKeyModel] = info.Model
	}
	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	return txt
}

// DecodeTXT parses TXT records into an Info without instance and port.
func DecodeTXT(txt TXTRecordMap) (*Info, error) {
	info := &Info{}
	var ok bool

	if info.ID, ok = txt[TXTKeyID]; !ok || info.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	if info.APIPath, ok = txt[TXTKeyAPI]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyAPI)
	}
	info.Model = txt[TXTKeyModel]
	info.Version = txt[TXTKeyVersion]
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
// A bare key maps to the empty string.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		k, v, _ := strings.Cut(s, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}
