package email

const reportsTemplate = `
<!DOCTYPE html>
<html>

<head>
  <title></title>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta http-equiv="X-UA-Compatible" content="IE=edge" />
  <style type="text/css">
    a {
      font-family: 'Cambria';
    }
    p {
      color: #111111;
      font-family: 'Cambria';
    }
    table,
    td {
      font-size: 14px;
      mso-table-lspace: 0pt;
      mso-table-rspace: 0pt;
    }
    table {
      border-collapse: collapse !important;
    }
    body {
      height: 100% !important;
      margin: 0 !important;
      padding: 0 !important;
      width: 100% !important;
    }
  </style>
</head>
<body style="background-color: #f4f4f4; margin: 0 !important; padding: 0 !important;">
  <table border="0" cellpadding="0" cellspacing="0" width="100%">
    <tr>
      <td bgcolor="#FFA73B" align="center">
        <table border="0" cellpadding="0" cellspacing="0" width="100%" style="max-width: 600px;">
          <tr>
            <td align="center" valign="top" style="padding: 0px 10px 0px 10px;">
              <p style="color: white; font-size:20pt">Organization Exposure Report</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
    <tr>
      <td bgcolor="#f4f4f4" align="center" style="padding: 0px 10px 0px 10px;">
        <table border="0" cellpadding="0" cellspacing="0" width="100%" style="max-width: 600px;">
          <tr>
            <td bgcolor="#ffffff" align="left" style="padding: 30px 30px 0px 30px; font-size: 16px;">
              <p>Found {{ .MatchesCount }} signature matches in {{ .FilesCount }} files.</p>
            </td>
          </tr>
          {{ range .Repos }}
          <tr>
            <td bgcolor="#ffffff" align="left" style="padding: 30px 30px 10px 30px;">
              <span style="color: rgb(216, 119, 0); font-size: 22px;">{{ .Repo }}</span> ({{ .Branch }})
              <hr align="center" size="1" color="#111111" />
            </td>
          </tr>
          {{ range .Rules }}
          <tr>
            <td bgcolor="#ffffff" align="left" style="padding: 0px 30px 0px 30px; font-size: 14px;">
              <p><b>{{ .Name }}</b></p>
              {{ range .Items }}
              <p><a style="color: rgb(216, 119, 0); font-size: 14px;" href="{{ .Link }}">{{ .RelativePath }}</a>{{ if .Line }}:{{ .Line }}{{ end }}
              {{ if .Snippet }}<br/><code>{{ .Snippet }}</code>{{ end }}</p>
              {{ end }}
            </td>
          </tr>
          {{ end }}
          {{ end }}
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`
