package index

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// folderClauses builds LIKE conditions that pre-filter rows by folder path
// on the given column. Each normalized filter becomes one pattern of the
// form %seg1%seg2%, which admits every row the exact hierarchy matcher
// would accept plus some false positives; callers re-check the survivors.
func folderClauses(col string, folders [][]string) ([]string, []any) {
	clauses := make([]string, 0, len(folders))
	args := make([]any, 0, len(folders))
	for _, segs := range folders {
		var sb strings.Builder
		sb.WriteByte('%')
		for _, seg := range segs {
			sb.WriteString(likeEscaper.Replace(seg))
			sb.WriteByte('%')
		}
		clauses = append(clauses, `lower(`+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, sb.String())
	}
	return clauses, args
}
